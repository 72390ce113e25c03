package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/monitoring"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/syncer"
	"mercator-hq/ganymede/pkg/telemetry/health"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Monitor is the aggregation surface the status API serves.
// *monitoring.Monitor implements it.
type Monitor interface {
	GetAllAccountInfo(ctx context.Context) []*providers.AccountInfo
	GetAllUsageInfo(ctx context.Context, days int) []*providers.UsageInfo
	GetUsageSummary(ctx context.Context, days int) *monitoring.UsageSummary
	GetConfiguredProviders(ctx context.Context) []string
	GetUnconfiguredProviders(ctx context.Context) []string
	GetRateLimitStatus() map[string]ratelimit.Status
	ProviderNames() []string
	ConnectedProviders() int
	RefreshProviderDataAsync(name string)
	RefreshAllProviderDataAsync()
}

// SyncEngine is the background sync surface the status API reports on.
// *syncer.Engine implements it.
type SyncEngine interface {
	GetSyncStatus() syncer.Status
	IsRunning() bool
}

// Config contains configuration and collaborators for the status server.
type Config struct {
	// Server holds the listen address and HTTP timeouts.
	Server config.ServerConfig

	// Health configures the probe endpoints mounted on the server.
	Health config.HealthConfig

	// Monitor serves every /v1 read. Required.
	Monitor Monitor

	// Engine backs /v1/sync/status and the sync readiness check.
	// Optional; nil reports background sync as disabled.
	Engine SyncEngine

	// Metrics provides the Prometheus scrape handler. Optional; nil
	// leaves the metrics endpoint unmounted.
	Metrics *metrics.Collector

	// Version, Commit, and BuildTime feed the version endpoint.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP status server. It exposes the monitor's account,
// usage, and summary views, rate limiter state, sync status, manual
// refresh, health probes, and the Prometheus scrape endpoint.
type Server struct {
	config  config.ServerConfig
	monitor Monitor
	engine  SyncEngine
	metrics *metrics.Collector
	checker *health.Checker

	version   string
	commit    string
	buildTime string

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool

	logger *slog.Logger
}

// NewServer creates a status server. The health checker is built here
// and wired to the monitor's cached connection count and, when an
// engine is present, its running state.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Monitor == nil {
		return nil, fmt.Errorf("monitor is required")
	}
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = config.DefaultListenAddress
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = config.DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = config.DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = config.DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = config.DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes <= 0 {
		cfg.Server.MaxHeaderBytes = config.DefaultMaxHeaderBytes
	}

	checker := health.New(cfg.Health)
	monitor := cfg.Monitor
	checker.RegisterProvidersCheck(func(ctx context.Context) int {
		return monitor.ConnectedProviders()
	})
	if cfg.Engine != nil {
		checker.RegisterSyncCheck(cfg.Engine.IsRunning)
	}

	return &Server{
		config:       cfg.Server,
		monitor:      cfg.Monitor,
		engine:       cfg.Engine,
		metrics:      cfg.Metrics,
		checker:      checker,
		version:      cfg.Version,
		commit:       cfg.Commit,
		buildTime:    cfg.BuildTime,
		shutdownChan: make(chan struct{}),
		logger:       slog.Default().With("component", "server"),
	}, nil
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting status server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Set up signal handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		// Unblock Start regardless of who initiated the shutdown
		close(s.shutdownChan)

		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("status server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Probe endpoints at their configured paths
	s.checker.RegisterRoutes(mux, s.version, s.commit, s.buildTime)

	// Prometheus scrape endpoint
	if s.metrics != nil {
		mux.Handle(s.metrics.Path(), s.metrics.Handler())
	}

	// Status API
	mux.HandleFunc("/v1/accounts", s.handleAccounts)
	mux.HandleFunc("/v1/usage", s.handleUsage)
	mux.HandleFunc("/v1/summary", s.handleSummary)
	mux.HandleFunc("/v1/providers", s.handleProviders)
	mux.HandleFunc("/v1/limits", s.handleLimits)
	mux.HandleFunc("/v1/sync/status", s.handleSyncStatus)
	mux.HandleFunc("/v1/sync/refresh", s.handleSyncRefresh)

	// Apply middleware chain. Request ID runs outermost so the other
	// layers see the correlation ID; recovery sits inside logging so a
	// panicking request still gets a completion log line with its 500.
	var handler http.Handler = mux

	// Recovery middleware
	handler = s.recoveryMiddleware(handler)

	// Logging middleware
	handler = s.loggingMiddleware(handler)

	// Request ID middleware (outermost)
	handler = s.requestIDMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Checker returns the server's health checker, so callers can register
// additional readiness checks before Start.
func (s *Server) Checker() *health.Checker {
	return s.checker
}
