// Package health provides health check endpoints for Ganymede.
//
// # Overview
//
// The health package implements liveness and readiness probes for Kubernetes
// and other orchestration systems, along with a version information endpoint.
// Probe paths, the per-check timeout, and the connected-provider floor all
// come from config.HealthConfig.
//
// # Endpoints
//
// The package provides three main endpoints (paths configurable):
//
//   - /health: Liveness probe - indicates if the process is running
//   - /ready: Readiness probe - indicates if the monitor can serve fresh data
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	// Create health checker
//	checker := health.New(cfg.Telemetry.Health)
//
//	// Register domain checks
//	checker.RegisterProvidersCheck(func(ctx context.Context) int {
//	    return monitor.ConnectedProviders(ctx)
//	})
//	checker.RegisterSyncCheck(engine.IsRunning)
//
//	// Mount the endpoints
//	mux := http.NewServeMux()
//	checker.RegisterRoutes(mux, "0.1.0", "abc123", "2025-11-20")
//
// # Liveness vs Readiness
//
// **Liveness Probe** (/health):
//   - Indicates if the process is alive and running
//   - Returns 200 OK if process is alive
//   - Used by Kubernetes to restart pods
//   - Fast check (<10ms)
//
// **Readiness Probe** (/ready):
//   - Indicates if the monitor can serve meaningful data
//   - Checks all registered component health checks concurrently
//   - Returns 200 OK if all components are healthy
//   - Returns 503 Service Unavailable if any component is unhealthy
//   - Used by Kubernetes to route traffic
//   - May take longer (each check bounded by the configured timeout)
//
// # Component Health Checks
//
// Components can register arbitrary check functions:
//
//	checker.RegisterCheck("database", func(ctx context.Context) error {
//	    return store.Ping(ctx)
//	})
//
// Domain checks with constructors in this package:
//   - providers: At least MinConnectedProviders report a connected account
//   - sync: The background sync engine is running
//
// The providers check reads the monitor's cached account snapshots, so a
// readiness probe never triggers new provider fetches.
//
// # Performance
//
// Health checks are designed to be lightweight:
//   - Liveness: <10ms
//   - Readiness: <100ms (all component checks, run concurrently)
//   - Version: <1ms
//
// # Example Response
//
// Liveness response (/health):
//
//	{
//	    "status": "ok",
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Readiness response (/ready):
//
//	{
//	    "status": "ready",
//	    "checks": {
//	        "providers": {"status": "ok"},
//	        "sync": {"status": "ok"}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Degraded response (/ready):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "providers": {"status": "unhealthy", "message": "0 of 1 required providers connected"},
//	        "sync": {"status": "ok"}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Version response (/version):
//
//	{
//	    "version": "0.1.0",
//	    "commit": "abc123def456",
//	    "build_time": "2025-11-20T00:00:00Z",
//	    "go_version": "go1.25.0"
//	}
package health
