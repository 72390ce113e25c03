// Package tracing provides OpenTelemetry distributed tracing for Mercator Ganymede.
//
// # Overview
//
// The tracing package implements span creation around provider fetches and
// background sync cycles, with trace export to an OTLP gRPC collector. Each
// span records:
//   - Operation name and duration
//   - Attributes (key-value pairs)
//   - Events (timestamped logs within the span)
//   - Trace context (trace ID, span ID, sampling decision)
//
// Ganymede originates its own traces: fetches are driven by the background
// sync engine and the status API, not by instrumented upstream callers, so
// there is no inbound trace context to continue.
//
// # Sampling
//
// Traces are sampled by trace ID ratio, wrapped in a parent-based sampler so
// child spans always follow their root span's decision:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sample_ratio: 0.1  # Sample 10% of traces
//
// A ratio of 1.0 samples everything (development), 0.0 samples nothing.
// Ganymede's trace volume is bounded by the sync cadence (a handful of
// traces per interval), so ratios well above typical service defaults
// are affordable.
//
// # Usage
//
//	// Initialize tracer
//	tracer, err := tracing.New(config.TracingConfig{
//	    Enabled:     true,
//	    Endpoint:    "localhost:4317",
//	    ServiceName: "mercator-ganymede",
//	    SampleRatio: 0.1,
//	    Insecure:    true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	// Create span
//	ctx, span := tracer.Start(ctx, "ganymede.provider.fetch")
//	defer span.End()
//
//	// Add attributes
//	tracing.SetFetchAttributes(span, "openai", "usage")
//	tracing.SetUsageAttributes(span, 30, 142.50, 9100, 4)
//
//	// Add event
//	span.AddEvent("cache_fallback", trace.WithAttributes(
//	    attribute.String("ganymede.provider", "openai"),
//	))
//
// A nil *Tracer is a valid noop tracer, so components carry it as an
// optional collaborator:
//
//	monitor, err := monitoring.NewMonitor(monitoring.Config{
//	    Providers: provs,
//	    Tracer:    tracer, // may be nil
//	})
//
// # Span Hierarchy
//
// Spans form a hierarchy representing one sync cycle:
//
//	ganymede.sync.usage (8s)
//	├── ganymede.provider.fetch {provider=openai} (2.1s)
//	├── ganymede.provider.fetch {provider=anthropic} (1.8s)
//	├── ganymede.provider.fetch {provider=google} (3.9s)
//	└── ganymede.provider.fetch {provider=ollama} (40ms)
//
// # Performance
//
// The tracing package is designed for minimal overhead:
//   - Span creation: <100µs per span
//   - Sampling decision: <1µs
//   - When disabled: <1µs (noop span)
//
// # Exporter
//
// Spans are exported over OTLP gRPC. The connection is lazy, so a missing
// collector degrades to dropped batches rather than a startup failure:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    insecure: true
//	    export_timeout: 10s
//
// # Attribute Helpers
//
// Common attributes can be set using helper functions:
//
//	// Fetch attributes
//	tracing.SetFetchAttributes(span, "openai", "account")
//
//	// Account snapshot attributes
//	tracing.SetAccountAttributes(span, true, "pay-as-you-go")
//
//	// Usage report attributes
//	tracing.SetUsageAttributes(span, 30, 142.50, 9100, 4)
//
//	// Error attributes
//	tracing.SetErrorAttributes(span, err, "fetch")
package tracing
