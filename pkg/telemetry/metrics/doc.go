// Package metrics provides Prometheus metrics collection for Mercator Ganymede.
//
// # Overview
//
// The metrics package exports the monitor's operational signals: provider
// fetch activity, cache effectiveness, background sync health, and
// observed spend against budgets. A single Collector owns a private
// Prometheus registry and offers one recording method per event; other
// packages hold a *Collector and never touch metric vectors directly.
//
// A nil *Collector is a valid no-op sink. Components take the collector
// as an optional collaborator and call it unconditionally.
//
// # Metrics Categories
//
//   - Provider Metrics: Fetch counts by kind and outcome, fetch latency,
//     connectivity, configured provider count
//   - Cache Metrics: Hits and misses per cached view, live entry count
//   - Sync Metrics: Completed runs by outcome, retries, last-run
//     timestamps, loop state
//   - Spend Metrics: Window spend, requests, and tokens per provider,
//     per-model spend, account balances, budget state
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//
//	// Record a provider fetch
//	collector.RecordFetch(
//		"openai",                 // provider
//		metrics.FetchKindUsage,   // kind
//		metrics.OutcomeSuccess,   // outcome
//		420*time.Millisecond,     // upstream duration
//	)
//
//	// Record spend from a usage report
//	collector.UpdateUsage("openai", 30, 142.50, 9100, 48_000_000)
//
//	// Expose the endpoint
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Custom Histogram Buckets
//
// Fetch duration buckets default to the range billing APIs actually
// answer in:
//
//	0.1s, 0.25s, 0.5s, 1s, 2s, 5s, 10s, 30s
//
// Override them with the fetch_duration_buckets configuration key.
//
// # Prometheus Endpoint
//
// All metrics are exposed in standard Prometheus format under the
// configured namespace and subsystem:
//
//	# HELP mercator_ganymede_provider_fetches_total Total number of provider fetches by kind and outcome
//	# TYPE mercator_ganymede_provider_fetches_total counter
//	mercator_ganymede_provider_fetches_total{kind="usage",outcome="success",provider="openai"} 1234
//
// # Cardinality Management
//
// Provider, kind, outcome, and view labels are all drawn from small
// fixed sets. The one label we do not control is the model identifier
// in per-model spend, which upstream reports populate with fine-tune
// IDs; a cardinality limiter caps those series and stops exporting
// previously unseen models once the cap is reached.
package metrics
