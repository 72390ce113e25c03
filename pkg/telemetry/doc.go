// Package telemetry provides observability for Ganymede.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// OpenTelemetry distributed tracing, and health check endpoints. It provides
// visibility into provider fetches, cache behavior, and background sync while
// keeping overhead well below the cost of a single provider API call.
//
// # Components
//
//   - logging: Structured slog logging with credential redaction
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//   - health: Liveness, readiness, and version endpoints
//
// # Usage
//
//	// Structured logging
//	logger, _ := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	logger.Install()
//
//	// Metrics
//	collector, _ := metrics.NewCollector(cfg.Telemetry.Metrics)
//	collector.RecordFetch("openai", metrics.FetchKindUsage, metrics.OutcomeSuccess, 840*time.Millisecond)
//
//	// Tracing
//	tracer, _ := tracing.New(cfg.Telemetry.Tracing)
//	ctx, span := tracer.Start(ctx, "ganymede.provider.fetch")
//	defer span.End()
//
//	// Health
//	checker := health.New(cfg.Telemetry.Health)
//	checker.RegisterRoutes(mux, version, commit, buildTime)
//
// # Optional Collaborators
//
// The metrics Collector and tracing Tracer are optional collaborators: a nil
// pointer is safe to call, so components take them in their Config structs
// without guarding every call site. Tests construct monitors and sync engines
// without telemetry at all.
//
// # Credential Protection
//
// Provider API keys pass through the monitor's configuration, so the logging
// package redacts credentials by default, both by attribute name (api_key,
// token) and by value shape (sk-..., Bearer ...):
//
//   - API keys: sk-abc123 → sk-***
//   - Bearer tokens: Bearer eyJh... → Bearer ***
package telemetry
