package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
)

// minCheckInterval bounds the scheduler tick from below so extreme
// cadence settings cannot produce a zero-period ticker.
const minCheckInterval = time.Millisecond

// Config bundles the engine's settings and collaborators.
type Config struct {
	// Sync carries the cadences and the retry envelope. Zero-valued
	// fields fall back to the package defaults from pkg/config.
	Sync config.SyncConfig

	// Monitor resolves the refresher each sync runs against. Required.
	Monitor MonitorFunc

	// Metrics receives run, retry, and schedule observations. Optional;
	// a nil collector records nothing.
	Metrics *metrics.Collector

	// Tracer wraps each sync envelope in a span. Optional; a nil tracer
	// produces noop spans.
	Tracer *tracing.Tracer
}

// Engine keeps cached provider data from going stale on two
// independent cadences: a slow one for account data and a faster one
// for usage data. A single background goroutine wakes on a check
// interval of one quarter of the shorter cadence and runs whichever
// syncs have come due, so a due sync starts at most a quarter cadence
// late. Every sync, scheduled or manual, runs through a fixed-delay
// retry envelope; an exhausted envelope is recorded in the status
// counters and the loop moves on. Only context cancellation or Stop
// ends the loop.
type Engine struct {
	config  config.SyncConfig
	monitor MonitorFunc
	metrics *metrics.Collector
	tracer  *tracing.Tracer

	mu              sync.RWMutex
	running         bool
	lastAccountSync time.Time
	lastUsageSync   time.Time
	successfulSyncs int64
	failedSyncs     int64
	lastError       string

	stopCh chan struct{}
	doneCh chan struct{}

	logger *slog.Logger
}

// NewEngine creates a sync engine. Zero-valued settings are replaced
// with the package defaults; the monitor resolver is required.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Monitor == nil {
		return nil, fmt.Errorf("monitor resolver is required")
	}

	settings := cfg.Sync
	if settings.AccountInterval <= 0 {
		settings.AccountInterval = config.DefaultAccountInterval
	}
	if settings.UsageInterval <= 0 {
		settings.UsageInterval = config.DefaultUsageInterval
	}
	if settings.MaxRetryAttempts <= 0 {
		settings.MaxRetryAttempts = config.DefaultMaxRetryAttempts
	}
	if settings.RetryDelay <= 0 {
		settings.RetryDelay = config.DefaultRetryDelay
	}
	if settings.UsageLookbackDays <= 0 {
		settings.UsageLookbackDays = config.DefaultUsageLookbackDays
	}

	return &Engine{
		config:  settings,
		monitor: cfg.Monitor,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		logger:  slog.Default().With("component", "syncer"),
	}, nil
}

// Start launches the background loop. The context governs the loop:
// when it is cancelled the loop exits on its own and Stop becomes
// unnecessary. Returns an error if the engine is already running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("sync engine already running")
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.mu.Unlock()

	e.logger.Info("sync engine started",
		"account_interval", e.config.AccountInterval,
		"usage_interval", e.config.UsageInterval,
		"check_interval", e.checkInterval(),
	)
	e.metrics.SetSyncRunning(true)

	go e.run(ctx)

	return nil
}

// Stop signals the loop to exit and waits for it to drain. Returns an
// error if the engine is not running.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return fmt.Errorf("sync engine not running")
	}
	e.running = false
	stop, done := e.stopCh, e.doneCh
	e.mu.Unlock()

	close(stop)
	<-done

	e.logger.Info("sync engine stopped")
	return nil
}

// IsRunning reports whether the background loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// run is the scheduling loop. It captures its own generation's
// channels so a Stop/Start pair cannot hand it another run's.
func (e *Engine) run(ctx context.Context) {
	stop, done := e.stopCh, e.doneCh
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		e.metrics.SetSyncRunning(false)
		close(done)
	}()

	ticker := time.NewTicker(e.checkInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("sync engine loop exiting", "reason", "context cancelled")
			return
		case <-stop:
			return
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// runCycle runs whichever syncs have come due. Failures are logged and
// recorded in the counters; they never stop the loop.
func (e *Engine) runCycle(ctx context.Context) {
	now := time.Now()

	e.mu.RLock()
	accountDue := now.Sub(e.lastAccountSync) >= e.config.AccountInterval
	usageDue := now.Sub(e.lastUsageSync) >= e.config.UsageInterval
	e.mu.RUnlock()

	if accountDue {
		if err := e.syncAccounts(ctx); err != nil {
			e.logger.Error("account sync failed", "error", err)
		}
	}
	if usageDue && ctx.Err() == nil {
		if err := e.syncUsage(ctx); err != nil {
			e.logger.Error("usage sync failed", "error", err)
		}
	}
}

// SyncAllProviders runs an account sync followed by a usage sync,
// immediately and outside the schedule. Both run even if the first
// fails; the first error wins.
func (e *Engine) SyncAllProviders(ctx context.Context) error {
	accountErr := e.syncAccounts(ctx)
	usageErr := e.syncUsage(ctx)
	if accountErr != nil {
		return accountErr
	}
	return usageErr
}

// SyncProviderAccounts runs an account sync immediately, outside the
// schedule, through the same retry envelope and counters.
func (e *Engine) SyncProviderAccounts(ctx context.Context) error {
	return e.syncAccounts(ctx)
}

// SyncProviderUsage runs a usage sync immediately, outside the
// schedule, through the same retry envelope and counters.
func (e *Engine) SyncProviderUsage(ctx context.Context) error {
	return e.syncUsage(ctx)
}

// GetSyncStatus derives the current schedule view. No side effects.
func (e *Engine) GetSyncStatus() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := time.Now()
	return Status{
		Running:         e.running,
		LastAccountSync: e.lastAccountSync,
		LastUsageSync:   e.lastUsageSync,
		NextAccountSync: nextSyncTime(e.lastAccountSync, e.config.AccountInterval, now),
		NextUsageSync:   nextSyncTime(e.lastUsageSync, e.config.UsageInterval, now),
		SuccessfulSyncs: e.successfulSyncs,
		FailedSyncs:     e.failedSyncs,
		LastError:       e.lastError,
	}
}

// syncAccounts runs one account sync: resolve the monitor for this
// cycle, refresh through the retry envelope, record the attempt time.
func (e *Engine) syncAccounts(ctx context.Context) error {
	refresher := e.monitor()

	var err error
	if refresher == nil {
		err = fmt.Errorf("no monitor available")
		e.recordFailure("account", err)
	} else {
		err = e.executeWithRetry(ctx, "account", func(ctx context.Context) error {
			return refresher.RefreshAccountData(ctx)
		})
	}

	now := time.Now()
	e.mu.Lock()
	e.lastAccountSync = now
	e.mu.Unlock()
	e.metrics.SetLastSyncTime("account", now)

	return err
}

// syncUsage runs one usage sync, mirroring syncAccounts.
func (e *Engine) syncUsage(ctx context.Context) error {
	refresher := e.monitor()

	var err error
	if refresher == nil {
		err = fmt.Errorf("no monitor available")
		e.recordFailure("usage", err)
	} else {
		err = e.executeWithRetry(ctx, "usage", func(ctx context.Context) error {
			return refresher.RefreshUsageData(ctx, e.config.UsageLookbackDays)
		})
	}

	now := time.Now()
	e.mu.Lock()
	e.lastUsageSync = now
	e.mu.Unlock()
	e.metrics.SetLastSyncTime("usage", now)

	return err
}

// executeWithRetry runs op up to MaxRetryAttempts times with a fixed
// delay between attempts, no backoff. A success increments the success
// counter. Exhausting every attempt increments the failure counter,
// records the last error, and returns it; the scheduling loop logs and
// keeps going. Cancellation aborts between attempts without touching
// the counters.
func (e *Engine) executeWithRetry(ctx context.Context, kind string, op func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "ganymede.sync."+kind)
	defer span.End()
	tracing.SetSyncAttributes(span, kind)

	var lastErr error

	for attempt := 1; attempt <= e.config.MaxRetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.config.RetryDelay):
			}
			e.metrics.RecordSyncRetry(kind)
			tracing.SetRetryAttribute(span, attempt-1)
		}

		err := op(ctx)
		if err == nil {
			e.mu.Lock()
			e.successfulSyncs++
			e.mu.Unlock()
			e.metrics.RecordSyncRun(kind, true)
			tracing.SetStatus(span, nil)
			return nil
		}

		lastErr = err
		e.logger.Warn("sync attempt failed",
			"sync", kind,
			"attempt", attempt,
			"max_attempts", e.config.MaxRetryAttempts,
			"error", err,
		)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	e.recordFailure(kind, lastErr)
	err := fmt.Errorf("%s sync failed after %d attempts: %w", kind, e.config.MaxRetryAttempts, lastErr)
	tracing.SetErrorAttributes(span, err, "sync")
	return err
}

// recordFailure notes one exhausted envelope in the lifetime counters.
func (e *Engine) recordFailure(kind string, err error) {
	e.mu.Lock()
	e.failedSyncs++
	e.lastError = fmt.Sprintf("%s sync: %v", kind, err)
	e.mu.Unlock()
	e.metrics.RecordSyncRun(kind, false)
}

// nextSyncTime is the last sync plus the cadence, or now for a class
// that has never run (it is due immediately).
func nextSyncTime(last time.Time, interval time.Duration, now time.Time) time.Time {
	if last.IsZero() {
		return now
	}
	return last.Add(interval)
}

// checkInterval is the scheduler tick period: one quarter of the
// shorter cadence.
func (e *Engine) checkInterval() time.Duration {
	shorter := e.config.AccountInterval
	if e.config.UsageInterval < shorter {
		shorter = e.config.UsageInterval
	}
	interval := shorter / 4
	if interval < minCheckInterval {
		interval = minCheckInterval
	}
	return interval
}
