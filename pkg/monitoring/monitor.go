package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/budget"
	"mercator-hq/ganymede/pkg/cache"
	"mercator-hq/ganymede/pkg/costs"
	"mercator-hq/ganymede/pkg/history"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
)

// Cache keys. Individual provider snapshots live under sub-keys so a
// rate-limited provider can still serve its last known data while the
// aggregate is rebuilt around it.
const (
	accountsKey      = "monitor:accounts"
	configuredKey    = "monitor:providers:configured"
	unconfiguredKey  = "monitor:providers:unconfigured"
	monitorKeyPrefix = "monitor:"
)

func accountKey(provider string) string {
	return "monitor:account:" + provider
}

func usageKey(provider string, days int) string {
	return fmt.Sprintf("monitor:usage:%s:%d", provider, days)
}

func usageProviderPrefix(provider string) string {
	return "monitor:usage:" + provider + ":"
}

func usageAggregateKey(days int) string {
	return fmt.Sprintf("monitor:usage:%d", days)
}

func summaryKey(days int) string {
	return fmt.Sprintf("monitor:summary:%d", days)
}

const (
	defaultAccountTTL      = 15 * time.Minute
	defaultUsageTTL        = 5 * time.Minute
	defaultSummaryTTL      = 5 * time.Minute
	defaultProviderListTTL = time.Hour
	defaultLookbackDays    = 30
)

// Config contains configuration and collaborators for the Monitor.
type Config struct {
	// Providers is the fixed list the monitor fans out to. Built once
	// at startup by the provider factory.
	Providers []providers.Provider

	// RateLimiter gates upstream calls per provider. A default limiter
	// is created if not provided.
	RateLimiter *ratelimit.RateLimiter

	// Cache stores individual and aggregate snapshots. A default cache
	// is created if not provided.
	Cache *cache.Cache

	// Calculator prices usage reports whose provider returned token
	// counts but no cost. Optional; nil leaves such reports unpriced.
	Calculator *costs.Calculator

	// Budgets evaluates observed spend against configured monthly
	// limits, surfaced in the summary. Optional.
	Budgets *budget.Tracker

	// History receives one snapshot per provider after each successful
	// usage fetch. Optional; nil disables history recording.
	History history.Store

	// Metrics receives fetch, cache, and spend observations. Optional;
	// a nil collector records nothing.
	Metrics *metrics.Collector

	// Tracer wraps provider fetches in spans. Optional; a nil tracer
	// produces noop spans.
	Tracer *tracing.Tracer

	// AccountTTL is how long account snapshots stay cached. Account and
	// plan data changes slowly.
	// Default: 15 minutes
	AccountTTL time.Duration

	// UsageTTL is how long usage reports stay cached. Usage figures
	// move constantly, so this is shorter than AccountTTL.
	// Default: 5 minutes
	UsageTTL time.Duration

	// SummaryTTL is how long derived summaries stay cached.
	// Default: 5 minutes
	SummaryTTL time.Duration

	// ProviderListTTL is how long the configured/unconfigured provider
	// lists stay cached. Which providers are configured changes far
	// less often than their live data.
	// Default: 1 hour
	ProviderListTTL time.Duration
}

// Monitor produces account, usage, and summary views across all
// configured providers. It consults the rate limiter before every
// upstream call, reads and writes the cache around every expensive
// operation, and tolerates individual provider failures without
// aborting the whole view: a failing provider contributes nothing this
// cycle, and no error escapes the aggregation methods.
type Monitor struct {
	providers  []providers.Provider
	limiter    *ratelimit.RateLimiter
	cache      *cache.Cache
	calculator *costs.Calculator
	budgets    *budget.Tracker
	history    history.Store
	metrics    *metrics.Collector
	tracer     *tracing.Tracer

	accountTTL      time.Duration
	usageTTL        time.Duration
	summaryTTL      time.Duration
	providerListTTL time.Duration

	// seenWindows tracks every lookback window ever requested, so
	// refreshes know which usage and summary keys exist.
	seenWindows map[int]struct{}
	mu          sync.Mutex

	logger *slog.Logger
}

// NewMonitor creates a monitor over the given providers.
//
// Example:
//
//	monitor, err := monitoring.NewMonitor(monitoring.Config{
//	    Providers:   providerList,
//	    RateLimiter: limiter,
//	    Cache:       store,
//	})
func NewMonitor(cfg Config) (*Monitor, error) {
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = ratelimit.NewRateLimiter(ratelimit.Policy{}, nil)
	}
	if cfg.Cache == nil {
		store, err := cache.New(cache.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		cfg.Cache = store
	}
	if cfg.AccountTTL <= 0 {
		cfg.AccountTTL = defaultAccountTTL
	}
	if cfg.UsageTTL <= 0 {
		cfg.UsageTTL = defaultUsageTTL
	}
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = defaultSummaryTTL
	}
	if cfg.ProviderListTTL <= 0 {
		cfg.ProviderListTTL = defaultProviderListTTL
	}

	m := &Monitor{
		providers:       cfg.Providers,
		limiter:         cfg.RateLimiter,
		cache:           cfg.Cache,
		calculator:      cfg.Calculator,
		budgets:         cfg.Budgets,
		history:         cfg.History,
		metrics:         cfg.Metrics,
		tracer:          cfg.Tracer,
		accountTTL:      cfg.AccountTTL,
		usageTTL:        cfg.UsageTTL,
		summaryTTL:      cfg.SummaryTTL,
		providerListTTL: cfg.ProviderListTTL,
		seenWindows:     make(map[int]struct{}),
		logger:          slog.Default().With("component", "monitoring"),
	}
	m.metrics.SetProvidersConfigured(m.configuredCount())
	return m, nil
}

// GetAllAccountInfo returns the current account snapshot for every
// provider that produced data. Rate-limited providers serve their last
// individually cached snapshot; providers that fail or have nothing
// cached are omitted. The aggregate is cached under its own key.
func (m *Monitor) GetAllAccountInfo(ctx context.Context) []*providers.AccountInfo {
	if cached, ok := m.cache.Get(accountsKey); ok {
		if infos, ok := cached.([]*providers.AccountInfo); ok {
			m.metrics.RecordCacheHit("accounts")
			return infos
		}
	}
	m.metrics.RecordCacheMiss("accounts")

	// Fan out to every provider concurrently; indexed writes need no lock
	results := make([]*providers.AccountInfo, len(m.providers))
	var wg sync.WaitGroup
	for i, p := range m.providers {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()
			results[i] = m.fetchAccount(ctx, p)
		}(i, p)
	}
	wg.Wait()

	infos := make([]*providers.AccountInfo, 0, len(results))
	for _, info := range results {
		if info != nil {
			infos = append(infos, info)
		}
	}

	m.cache.Set(accountsKey, infos, m.accountTTL)
	m.observeCacheEntries()
	return infos
}

// GetAllUsageInfo returns aggregated usage over the trailing number of
// days for every provider that produced data, with the same admission,
// caching, and failure-isolation behavior as GetAllAccountInfo.
func (m *Monitor) GetAllUsageInfo(ctx context.Context, days int) []*providers.UsageInfo {
	if days <= 0 {
		days = defaultLookbackDays
	}

	if cached, ok := m.cache.Get(usageAggregateKey(days)); ok {
		if reports, ok := cached.([]*providers.UsageInfo); ok {
			m.metrics.RecordCacheHit("usage")
			return reports
		}
	}
	m.metrics.RecordCacheMiss("usage")

	m.noteWindow(days)

	results := make([]*providers.UsageInfo, len(m.providers))
	var wg sync.WaitGroup
	for i, p := range m.providers {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()
			results[i] = m.fetchUsage(ctx, p, days)
		}(i, p)
	}
	wg.Wait()

	reports := make([]*providers.UsageInfo, 0, len(results))
	for _, report := range results {
		if report != nil {
			reports = append(reports, report)
		}
	}

	m.cache.Set(usageAggregateKey(days), reports, m.usageTTL)
	m.observeCacheEntries()
	return reports
}

// GetConfiguredProviders returns the names of providers that have the
// credentials they need, sorted. Cached with a long TTL.
func (m *Monitor) GetConfiguredProviders(ctx context.Context) []string {
	if cached, ok := m.cache.Get(configuredKey); ok {
		if names, ok := cached.([]string); ok {
			m.metrics.RecordCacheHit("providers")
			return names
		}
	}
	m.metrics.RecordCacheMiss("providers")

	names := []string{}
	for _, p := range m.providers {
		if p.IsConfigured() {
			names = append(names, p.Name())
		}
	}
	sort.Strings(names)

	m.cache.Set(configuredKey, names, m.providerListTTL)
	return names
}

// GetUnconfiguredProviders returns the names of providers missing
// credentials, sorted. Cached with a long TTL.
func (m *Monitor) GetUnconfiguredProviders(ctx context.Context) []string {
	if cached, ok := m.cache.Get(unconfiguredKey); ok {
		if names, ok := cached.([]string); ok {
			m.metrics.RecordCacheHit("providers")
			return names
		}
	}
	m.metrics.RecordCacheMiss("providers")

	names := []string{}
	for _, p := range m.providers {
		if !p.IsConfigured() {
			names = append(names, p.Name())
		}
	}
	sort.Strings(names)

	m.cache.Set(unconfiguredKey, names, m.providerListTTL)
	return names
}

// GetRateLimitStatus returns the rate limiter status for every known
// provider.
func (m *Monitor) GetRateLimitStatus() map[string]ratelimit.Status {
	return m.limiter.GetAllStatus()
}

// ProviderNames returns the names of all monitored providers, in
// configuration order.
func (m *Monitor) ProviderNames() []string {
	names := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		names = append(names, p.Name())
	}
	return names
}

// ConnectedProviders reports how many providers' cached account
// snapshot shows a live connection. It reads only the cache and never
// triggers a fetch, so readiness probes can call it on every scrape.
func (m *Monitor) ConnectedProviders() int {
	connected := 0
	for _, p := range m.providers {
		cached, ok := m.cache.Get(accountKey(p.Name()))
		if !ok {
			continue
		}
		if info, ok := cached.(*providers.AccountInfo); ok && info.IsConnected {
			connected++
		}
	}
	return connected
}

// fetchAccount resolves one provider's account snapshot: skip when
// unconfigured, serve the cached sub-key when rate limited, otherwise
// call upstream. Returns nil when the provider contributes nothing.
func (m *Monitor) fetchAccount(ctx context.Context, p providers.Provider) *providers.AccountInfo {
	name := p.Name()

	if !p.IsConfigured() {
		m.logger.Debug("provider not configured, skipping account fetch", "provider", name)
		return nil
	}

	ctx, span := m.tracer.Start(ctx, "ganymede.provider.fetch")
	defer span.End()
	tracing.SetFetchAttributes(span, name, metrics.FetchKindAccount)

	if !m.limiter.CanMakeRequest(name) {
		m.metrics.RecordFetch(name, metrics.FetchKindAccount, metrics.OutcomeRateLimited, 0)
		tracing.SetRateLimitedAttribute(span)
		if cached, ok := m.cache.Get(accountKey(name)); ok {
			if snapshot, ok := cached.(*providers.AccountInfo); ok {
				m.logger.Debug("rate limited, serving cached account snapshot", "provider", name)
				tracing.SetCacheAttributes(span, true, accountKey(name))
				return snapshot
			}
		}
		m.logger.Warn("rate limited with no cached account snapshot, skipping provider", "provider", name)
		return nil
	}

	start := time.Now()
	info, err := p.GetAccountInfo(ctx)
	if err != nil {
		m.logger.Error("account fetch failed",
			"provider", name,
			"error", err,
		)
		m.limiter.RecordRequest(name, false)
		m.metrics.RecordFetch(name, metrics.FetchKindAccount, metrics.OutcomeError, time.Since(start))
		tracing.SetErrorAttributes(span, err, "fetch")
		return nil
	}
	m.limiter.RecordRequest(name, true)
	m.metrics.RecordFetch(name, metrics.FetchKindAccount, metrics.OutcomeSuccess, time.Since(start))
	m.metrics.UpdateProviderConnected(name, info.IsConnected)
	if info.Balance != nil {
		m.metrics.UpdateAccountBalance(name, *info.Balance)
	}
	tracing.SetAccountAttributes(span, info.IsConnected, info.PlanType)
	tracing.SetStatus(span, nil)

	m.cache.Set(accountKey(name), info, m.accountTTL)
	return info
}

// fetchUsage resolves one provider's usage report for the given
// lookback window, pricing token-only reports and recording a history
// snapshot on success. Returns nil when the provider contributes
// nothing.
func (m *Monitor) fetchUsage(ctx context.Context, p providers.Provider, days int) *providers.UsageInfo {
	name := p.Name()

	if !p.IsConfigured() {
		m.logger.Debug("provider not configured, skipping usage fetch", "provider", name)
		return nil
	}

	ctx, span := m.tracer.Start(ctx, "ganymede.provider.fetch")
	defer span.End()
	tracing.SetFetchAttributes(span, name, metrics.FetchKindUsage)

	if !m.limiter.CanMakeRequest(name) {
		m.metrics.RecordFetch(name, metrics.FetchKindUsage, metrics.OutcomeRateLimited, 0)
		tracing.SetRateLimitedAttribute(span)
		if cached, ok := m.cache.Get(usageKey(name, days)); ok {
			if report, ok := cached.(*providers.UsageInfo); ok {
				m.logger.Debug("rate limited, serving cached usage report", "provider", name)
				tracing.SetCacheAttributes(span, true, usageKey(name, days))
				return report
			}
		}
		m.logger.Warn("rate limited with no cached usage report, skipping provider", "provider", name)
		return nil
	}

	start := time.Now()
	report, err := p.GetUsageInfo(ctx, days)
	if err != nil {
		m.logger.Error("usage fetch failed",
			"provider", name,
			"days", days,
			"error", err,
		)
		m.limiter.RecordRequest(name, false)
		m.metrics.RecordFetch(name, metrics.FetchKindUsage, metrics.OutcomeError, time.Since(start))
		tracing.SetErrorAttributes(span, err, "fetch")
		return nil
	}
	m.limiter.RecordRequest(name, true)
	m.metrics.RecordFetch(name, metrics.FetchKindUsage, metrics.OutcomeSuccess, time.Since(start))

	// Local daemons and some billing APIs report tokens without cost;
	// price those from the table before the report is cached or recorded.
	if m.calculator != nil {
		m.calculator.PriceUsage(report)
	}

	tracing.SetUsageAttributes(span, days, report.TotalCost, report.TotalRequests, len(report.ModelUsage))
	tracing.SetStatus(span, nil)

	m.recordSpend(report, days)
	m.cache.Set(usageKey(name, days), report, m.usageTTL)
	m.recordHistory(ctx, report, days)
	return report
}

// recordHistory appends one usage snapshot to the history store.
// Failures are logged, never propagated: history is derived data.
func (m *Monitor) recordHistory(ctx context.Context, report *providers.UsageInfo, days int) {
	if m.history == nil {
		return
	}

	record := &history.Record{
		ID:            uuid.NewString(),
		Provider:      report.Provider,
		RecordedAt:    time.Now().UTC(),
		WindowDays:    days,
		TotalCost:     report.TotalCost,
		TotalRequests: report.TotalRequests,
		TotalTokens:   report.TotalTokens,
	}

	if err := m.history.Append(ctx, record); err != nil {
		m.logger.Error("failed to record usage history",
			"provider", report.Provider,
			"error", err,
		)
	}
}

// recordSpend exports one priced usage report to the spend gauges.
func (m *Monitor) recordSpend(report *providers.UsageInfo, days int) {
	m.metrics.UpdateUsage(report.Provider, days, report.TotalCost, report.TotalRequests, report.TotalTokens)
	for _, usage := range report.ModelUsage {
		m.metrics.UpdateModelCost(report.Provider, usage.Model, days, usage.Cost)
	}
}

// observeCacheEntries refreshes the cache entry gauge after a rebuild.
// Skipped entirely when no collector is wired, so the statistics
// snapshot is not computed for nothing.
func (m *Monitor) observeCacheEntries() {
	if m.metrics == nil {
		return
	}
	m.metrics.UpdateCacheEntries(m.cache.GetStatistics().TotalEntries)
}

// noteWindow remembers a lookback window so refreshes can find every
// usage and summary key later.
func (m *Monitor) noteWindow(days int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seenWindows[days] = struct{}{}
}

// knownWindows returns every lookback window requested so far, sorted.
func (m *Monitor) knownWindows() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	windows := make([]int, 0, len(m.seenWindows))
	for days := range m.seenWindows {
		windows = append(windows, days)
	}
	sort.Ints(windows)
	return windows
}

// knownWindowsOrDefault is knownWindows with the default lookback as a
// fallback before any usage call has happened.
func (m *Monitor) knownWindowsOrDefault() []int {
	windows := m.knownWindows()
	if len(windows) == 0 {
		windows = []int{defaultLookbackDays}
	}
	return windows
}

// providerByName finds a monitored provider by its lowercase name.
func (m *Monitor) providerByName(name string) providers.Provider {
	for _, p := range m.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// configuredCount returns how many monitored providers have credentials.
func (m *Monitor) configuredCount() int {
	count := 0
	for _, p := range m.providers {
		if p.IsConfigured() {
			count++
		}
	}
	return count
}
