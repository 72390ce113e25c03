package metrics

import (
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// maxModelSeries caps the number of distinct provider/model label pairs
// the per-model spend gauge will export. Model identifiers come from
// upstream usage reports and include fine-tune IDs, so the set is not
// under our control.
const maxModelSeries = 1000

// Collector is the single registration point for all Prometheus metrics
// in Mercator Ganymede. It owns a private registry and exposes one
// recording method per event, so components hold a *Collector and never
// touch metric vectors directly.
//
// All recording methods are safe on a nil *Collector and no-ops when
// metrics are disabled, which lets components take the collector as an
// optional collaborator without guarding every call site.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	// Provider fetch metrics
	providerMetrics *ProviderMetrics

	// Cache metrics
	cacheMetrics *CacheMetrics

	// Background sync metrics
	syncMetrics *SyncMetrics

	// Spend and budget metrics
	spendMetrics *SpendMetrics

	// Cardinality tracking for upstream-controlled model labels
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a private
// registry is created.
//
// Example:
//
//	cfg := config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "mercator",
//		Subsystem: "ganymede",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.FetchDurationBuckets) == 0 {
		// Billing APIs answer in hundreds of milliseconds to tens of seconds
		cfg.FetchDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(maxModelSeries),
	}

	// Initialize metric subsystems
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	c.syncMetrics = NewSyncMetrics(cfg, registry)
	c.spendMetrics = NewSpendMetrics(cfg, registry)

	return c
}

// enabled reports whether this collector should record anything.
func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordFetch records one provider fetch attempt. The duration is
// observed only when positive; rate-limited skips pass zero because no
// upstream call happened.
//
// Parameters:
//   - provider: Provider name (e.g., "openai", "anthropic")
//   - kind: Fetch kind (FetchKindAccount or FetchKindUsage)
//   - outcome: Fetch outcome (OutcomeSuccess, OutcomeError, OutcomeRateLimited)
//   - duration: Upstream call duration, zero when nothing was called
//
// Example:
//
//	collector.RecordFetch("openai", metrics.FetchKindUsage, metrics.OutcomeSuccess, 420*time.Millisecond)
func (c *Collector) RecordFetch(provider, kind, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.RecordFetch(provider, kind, outcome)
	if duration > 0 {
		c.providerMetrics.ObserveFetchDuration(provider, kind, duration.Seconds())
	}
}

// UpdateProviderConnected updates the connectivity gauge for a provider.
//
// Parameters:
//   - provider: Provider name
//   - connected: true if the provider API answered the last probe
func (c *Collector) UpdateProviderConnected(provider string, connected bool) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.UpdateConnected(provider, connected)
}

// SetProvidersConfigured sets the number of providers with credentials.
//
// Parameters:
//   - count: Number of configured providers
func (c *Collector) SetProvidersConfigured(count int) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.SetConfigured(count)
}

// RecordCacheHit records a cache hit for a view.
//
// Parameters:
//   - view: Name of the cached view (e.g., "accounts", "usage", "summary")
func (c *Collector) RecordCacheHit(view string) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.RecordHit(view)
}

// RecordCacheMiss records a cache miss for a view.
//
// Parameters:
//   - view: Name of the cached view
func (c *Collector) RecordCacheMiss(view string) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.RecordMiss(view)
}

// UpdateCacheEntries sets the current number of live cache entries.
//
// Parameters:
//   - entries: Current entry count
func (c *Collector) UpdateCacheEntries(entries int) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.UpdateEntries(entries)
}

// RecordSyncRun records one completed sync retry envelope.
//
// Parameters:
//   - kind: Sync kind ("account" or "usage")
//   - success: true if any attempt in the envelope succeeded
func (c *Collector) RecordSyncRun(kind string, success bool) {
	if !c.enabled() {
		return
	}

	c.syncMetrics.RecordRun(kind, success)
}

// RecordSyncRetry records one retry attempt inside a sync envelope.
//
// Parameters:
//   - kind: Sync kind
func (c *Collector) RecordSyncRetry(kind string) {
	if !c.enabled() {
		return
	}

	c.syncMetrics.RecordRetry(kind)
}

// SetLastSyncTime records when a sync kind last completed.
//
// Parameters:
//   - kind: Sync kind
//   - t: Completion time
func (c *Collector) SetLastSyncTime(kind string, t time.Time) {
	if !c.enabled() {
		return
	}

	c.syncMetrics.SetLastRun(kind, t)
}

// SetSyncRunning updates the background loop state gauge.
//
// Parameters:
//   - running: true while the scheduling loop is active
func (c *Collector) SetSyncRunning(running bool) {
	if !c.enabled() {
		return
	}

	c.syncMetrics.SetRunning(running)
}

// UpdateUsage records the window totals from one usage report.
//
// Parameters:
//   - provider: Provider name
//   - windowDays: Lookback window in days
//   - costUSD: Total spend over the window
//   - requests: Total API requests over the window
//   - tokens: Total tokens over the window
func (c *Collector) UpdateUsage(provider string, windowDays int, costUSD float64, requests, tokens int64) {
	if !c.enabled() {
		return
	}

	c.spendMetrics.UpdateUsage(provider, windowDays, costUSD, requests, tokens)
}

// UpdateModelCost records the per-model slice of a usage report.
// Once the cardinality cap is reached, spend for previously unseen
// models is not exported; the established series keep updating.
//
// Parameters:
//   - provider: Provider name
//   - model: Model identifier as reported by the provider
//   - windowDays: Lookback window in days
//   - costUSD: Spend attributed to this model over the window
func (c *Collector) UpdateModelCost(provider, model string, windowDays int, costUSD float64) {
	if !c.enabled() {
		return
	}

	if !c.cardinalityLimiter.Allow("model:" + provider + ":" + model) {
		return
	}

	c.spendMetrics.UpdateModelCost(provider, model, windowDays, costUSD)
}

// UpdateAccountBalance records the remaining prepaid credit for a provider.
//
// Parameters:
//   - provider: Provider name
//   - balanceUSD: Remaining credit in USD
func (c *Collector) UpdateAccountBalance(provider string, balanceUSD float64) {
	if !c.enabled() {
		return
	}

	c.spendMetrics.UpdateBalance(provider, balanceUSD)
}

// UpdateBudget records one budget evaluation.
//
// Parameters:
//   - provider: Provider name, or "total" for combined spend
//   - state: Budget state ("ok", "warning", "exceeded")
//   - limitUSD: Configured monthly budget
//   - usedUSD: Observed spend
//   - ratio: Used over limit
func (c *Collector) UpdateBudget(provider, state string, limitUSD, usedUSD, ratio float64) {
	if !c.enabled() {
		return
	}

	c.spendMetrics.UpdateBudget(provider, state, limitUSD, usedUSD, ratio)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of unique label combinations a
// metric will export, protecting the registry from label values we do
// not control.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
