package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/budget"
	"mercator-hq/ganymede/pkg/cache"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/costs"
	"mercator-hq/ganymede/pkg/history"
	"mercator-hq/ganymede/pkg/monitoring"
	"mercator-hq/ganymede/pkg/providerfactory"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/secrets"
	"mercator-hq/ganymede/pkg/server"
	"mercator-hq/ganymede/pkg/syncer"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Ganymede monitor server",
	Long: `Start the Ganymede monitor server with the specified configuration.

The server polls the configured provider billing APIs in the background and
exposes the aggregated account, usage, and cost views over HTTP.

Examples:
  # Start with default config
  ganymede run

  # Start with custom config
  ganymede run --config /etc/ganymede/config.yaml

  # Override listen address
  ganymede run --listen 0.0.0.0:9090

  # Validate config without starting server
  ganymede run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Initialize logging based on config
	log, err := logging.New(cfg.Telemetry.Logging, nil)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	log.Install()

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Print startup banner
	printBanner(cfg)

	// Resolve secrets and build the provider set
	slog.Info("initializing providers")
	resolver := secrets.NewResolver(cfg.Secrets)
	defer resolver.Flush()

	providerList, err := providerfactory.BuildAll(cfg.Providers, resolver)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer providerfactory.CloseAll(providerList)

	if len(providerList) == 0 {
		slog.Warn("no providers configured")
	}
	fmt.Printf("✓ Providers initialized (%d providers)\n", len(providerList))

	// Per-provider rate limiting for upstream billing APIs
	policies := make(map[string]ratelimit.Policy, len(cfg.RateLimits.ByProvider))
	for name, policy := range cfg.RateLimits.ByProvider {
		policies[name] = ratelimit.Policy{
			MaxRequests: policy.MaxRequests,
			Window:      policy.Window,
		}
	}
	limiter := ratelimit.NewRateLimiter(ratelimit.Policy{
		MaxRequests: cfg.RateLimits.Default.MaxRequests,
		Window:      cfg.RateLimits.Default.Window,
	}, policies)

	// Snapshot cache
	store, err := cache.New(cache.Config{
		NumCounters:      cfg.Cache.NumCounters,
		MaxCost:          cfg.Cache.MaxCost,
		BufferItems:      cfg.Cache.BufferItems,
		DefaultEntryCost: cfg.Cache.DefaultEntryCost,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create cache: %w", err))
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cost calculator, with optional pricing file and hot reload
	calculator := costs.NewCalculator(&cfg.Costs)
	if cfg.Costs.PricingPath != "" {
		if err := calculator.LoadFile(cfg.Costs.PricingPath); err != nil {
			return cli.NewConfigError("costs.pricing_path", err.Error())
		}
		fmt.Printf("✓ Pricing loaded from %s\n", cfg.Costs.PricingPath)

		if cfg.Costs.Watch {
			watcher, err := costs.NewWatcher(cfg.Costs.PricingPath, slog.Default())
			if err != nil {
				return cli.NewCommandError("run", fmt.Errorf("failed to create pricing watcher: %w", err))
			}
			go func() {
				if err := watcher.Watch(ctx, func() error {
					return calculator.LoadFile(cfg.Costs.PricingPath)
				}); err != nil {
					slog.Error("pricing watcher failed", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	// Monthly budget tracking (if enabled)
	var budgets *budget.Tracker
	if cfg.Budgets.Enabled {
		budgets = budget.NewTracker(cfg.Budgets)
		fmt.Printf("✓ Budgets enabled (%d monthly limits)\n", len(cfg.Budgets.Monthly))
	}

	// Usage history (if enabled)
	var histStore history.Store
	if cfg.History.Enabled {
		slog.Info("initializing usage history",
			"backend", cfg.History.Backend,
		)

		histStore, err = history.NewStore(cfg.History)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to create history store: %w", err))
		}
		defer histStore.Close()

		// Start retention pruner if schedule is configured
		if cfg.History.Retention.PruneSchedule != "" {
			pruner := history.NewPruner(histStore, cfg.History.Retention)
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
			}
		}

		fmt.Println("✓ Usage history initialized")
	}

	// Telemetry collectors
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	}

	var tracer *tracing.Tracer
	if cfg.Telemetry.Tracing.Enabled {
		tracer, err = tracing.New(cfg.Telemetry.Tracing)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := tracer.Shutdown(flushCtx); err != nil {
				slog.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	// Aggregating monitor over all providers
	monitor, err := monitoring.NewMonitor(monitoring.Config{
		Providers:       providerList,
		RateLimiter:     limiter,
		Cache:           store,
		Calculator:      calculator,
		Budgets:         budgets,
		History:         histStore,
		Metrics:         collector,
		Tracer:          tracer,
		AccountTTL:      cfg.Cache.AccountTTL,
		UsageTTL:        cfg.Cache.UsageTTL,
		SummaryTTL:      cfg.Cache.SummaryTTL,
		ProviderListTTL: cfg.Cache.ProviderListTTL,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create monitor: %w", err))
	}

	// Background sync engine (if enabled)
	var engine *syncer.Engine
	if cfg.Sync.Enabled {
		engine, err = syncer.NewEngine(syncer.Config{
			Sync:    cfg.Sync,
			Monitor: func() syncer.Refresher { return monitor },
			Metrics: collector,
			Tracer:  tracer,
		})
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to create sync engine: %w", err))
		}
		if err := engine.Start(ctx); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to start sync engine: %w", err))
		}
		defer engine.Stop()

		fmt.Printf("✓ Background sync started (accounts every %s, usage every %s)\n",
			cfg.Sync.AccountInterval, cfg.Sync.UsageInterval)
	}

	// Create HTTP server
	slog.Info("creating HTTP server")
	serverConfig := server.Config{
		Server:    cfg.Server,
		Health:    cfg.Telemetry.Health,
		Monitor:   monitor,
		Metrics:   collector,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	}
	// Assign only a live engine; a typed-nil interface would pass the
	// server's nil checks and panic on use.
	if engine != nil {
		serverConfig.Engine = engine
	}
	srv, err := server.NewServer(serverConfig)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create server: %w", err))
	}

	// Start server in background goroutine
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server",
			"address", cfg.Server.ListenAddress,
		)
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for server to be ready
	if err := waitForServerReady(srv, errChan, 5*time.Second); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("server failed to start: %w", err))
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Health.LivenessPath)
	if collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, collector.Path())
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Ganymede v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	// Count providers
	providerCount := len(cfg.Providers)
	if providerCount > 0 {
		slog.Debug("providers configured", "count", providerCount)
	}

	// Sync info
	if cfg.Sync.Enabled {
		slog.Debug("background sync enabled",
			"account_interval", cfg.Sync.AccountInterval,
			"usage_interval", cfg.Sync.UsageInterval,
		)
	}

	// History info
	if cfg.History.Enabled {
		slog.Debug("usage history enabled", "backend", cfg.History.Backend)
	}
}

// waitForServerReady polls until the server reports running, the
// startup goroutine reports an error, or the timeout elapses.
func waitForServerReady(srv *server.Server, errChan <-chan error, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case err := <-errChan:
			return err
		default:
		}
		if srv.IsRunning() {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("server did not start within %s", timeout)
}
