// Package costs prices token usage for providers that report counts but
// not spend.
//
// # Overview
//
// Commercial APIs differ in what their usage endpoints return: some
// include billed cost, others only token counts. The Calculator closes
// that gap with a pricing table mapping provider and model to per-1K
// token rates. Lookups resolve in order: exact model, longest matching
// model prefix (so "claude-sonnet-4" covers dated releases like
// "claude-sonnet-4-20250514"), the provider's default entry, then the
// global default.
//
// # Pricing Table
//
// The table ships with built-in approximate list prices and can be
// replaced from configuration or from a standalone YAML file:
//
//	pricing:
//	  openai:
//	    gpt-4o: {input: 0.0025, output: 0.01}
//	    default: {input: 0.0025, output: 0.01}
//	  default:
//	    default: {input: 0.001, output: 0.002}
//
// # Hot Reload
//
// Watcher observes the pricing file through fsnotify and calls back
// after a debounced change, typically wired to Calculator.LoadFile.
// UpdatePricing is safe to call while lookups are in flight.
package costs
