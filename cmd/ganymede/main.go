// Ganymede is a usage and billing monitor for AI provider accounts.
//
// It polls the billing and usage APIs of the configured providers in the
// background and exposes the aggregated views over HTTP, providing:
//   - Multi-provider account and usage aggregation (OpenAI, Anthropic, etc.)
//   - Per-provider rate limiting against upstream billing APIs
//   - Snapshot caching with stale-data fallback
//   - Cost calculation and monthly budget tracking
//   - Usage history with scheduled retention pruning
//
// Usage:
//
//	# Start the monitor with default configuration
//	ganymede run
//
//	# Start with custom configuration file
//	ganymede run --config /path/to/config.yaml
//
//	# Show version information
//	ganymede version
//
//	# Validate a configuration file
//	ganymede validate --config /path/to/config.yaml
//
//	# Query a running monitor for the current usage summary
//	ganymede status --days 7
//
//	# Trigger an immediate refresh of one provider
//	ganymede refresh openai
//
// For complete documentation, see: https://github.com/mercator-hq/ganymede
package main

func main() {
	Execute()
}
