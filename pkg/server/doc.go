// Package server provides the HTTP status server for Ganymede.
//
// This package exposes the monitor's aggregated views over HTTP and
// provides server lifecycle management including start, shutdown, and
// health probes.
//
// # Architecture
//
// The server package is the top-level HTTP orchestrator that:
//   - Serves the /v1 status API backed by the monitor
//   - Mounts health probes and the Prometheus scrape endpoint
//   - Chains middleware for cross-cutting concerns
//   - Manages graceful shutdown
//   - Handles OS signals (SIGTERM, SIGINT)
//
// # Basic Usage
//
// Creating and starting a server:
//
//	import (
//	    "context"
//	    "mercator-hq/ganymede/pkg/config"
//	    "mercator-hq/ganymede/pkg/server"
//	)
//
//	cfg := config.GetConfig()
//
//	srv, err := server.NewServer(server.Config{
//	    Server:  cfg.Server,
//	    Health:  cfg.Telemetry.Health,
//	    Monitor: monitor,
//	    Engine:  engine,
//	    Metrics: collector,
//	    Version: "0.1.0",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The server handles graceful shutdown automatically when receiving
// SIGTERM or SIGINT, or programmatically:
//
//	if err := srv.Shutdown(context.Background()); err != nil {
//	    slog.Error("shutdown error", "error", err)
//	}
//
// The shutdown process:
//  1. Stops accepting new connections
//  2. Waits for active requests to complete (up to shutdown timeout)
//  3. Forces connection closure if timeout exceeded
//
// # Routes
//
// The server exposes the following HTTP endpoints:
//
//   - GET /v1/accounts - Account snapshot per provider
//   - GET /v1/usage?days=N - Usage reports over the lookback window
//   - GET /v1/summary?days=N - Joined cross-provider summary
//   - GET /v1/providers - Configured and unconfigured provider lists
//   - GET /v1/limits - Rate limiter status per provider
//   - GET /v1/sync/status - Background sync timing and counters
//   - POST /v1/sync/refresh[?provider=] - Trigger a background refresh
//   - GET /health - Liveness probe (path configurable)
//   - GET /ready - Readiness probe (path configurable)
//   - GET /version - Build information (path configurable)
//   - GET /metrics - Prometheus scrape endpoint (path configurable)
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost to innermost):
//  1. RequestID: Assigns a correlation ID, echoed in X-Request-ID
//  2. Logging: Logs request completion with status and latency
//  3. Recovery: Recovers from panics and returns a JSON 500
//
// # Readiness
//
// The readiness probe aggregates two domain checks: a minimum number of
// providers with a connected account (read from the monitor's cache, so
// probes never trigger provider fetches) and, when background sync is
// enabled, the sync engine's running state. Additional checks can be
// registered through Checker before Start.
//
// # Thread Safety
//
// All server operations are thread-safe and can be called concurrently
// from multiple goroutines.
package server
