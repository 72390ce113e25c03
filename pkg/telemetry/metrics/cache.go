package metrics

import (
	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks cache performance per cached view.
//
// Metrics:
//   - mercator_ganymede_cache_hits_total: Cache hits by view
//   - mercator_ganymede_cache_misses_total: Cache misses by view
//   - mercator_ganymede_cache_entries: Current number of live cache entries
//
// The view label names the cached aggregate being looked up: "accounts",
// "usage", "summary", or "providers". Sub-key fallback reads that only
// happen under rate limiting are deliberately not counted, so the hit
// rate reflects the API surface rather than the fallback machinery.
type CacheMetrics struct {
	// Cache hit counter by view
	hitsTotal *prometheus.CounterVec

	// Cache miss counter by view
	missesTotal *prometheus.CounterVec

	// Current number of live entries across all views
	entries prometheus.Gauge
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits by view",
			},
			[]string{"view"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses by view",
			},
			[]string{"view"},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of live cache entries",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
	)

	return cm
}

// RecordHit records a cache hit.
//
// Parameters:
//   - view: Name of the cached view (e.g., "accounts", "usage", "summary")
func (cm *CacheMetrics) RecordHit(view string) {
	cm.hitsTotal.WithLabelValues(view).Inc()
}

// RecordMiss records a cache miss.
//
// Parameters:
//   - view: Name of the cached view
func (cm *CacheMetrics) RecordMiss(view string) {
	cm.missesTotal.WithLabelValues(view).Inc()
}

// UpdateEntries sets the current number of live cache entries.
//
// Parameters:
//   - entries: Current entry count across all views
func (cm *CacheMetrics) UpdateEntries(entries int) {
	cm.entries.Set(float64(entries))
}

// Hit rate is derived rather than exported. Use PromQL:
//
//	rate(mercator_ganymede_cache_hits_total{view="usage"}[5m]) /
//	(rate(mercator_ganymede_cache_hits_total{view="usage"}[5m]) +
//	 rate(mercator_ganymede_cache_misses_total{view="usage"}[5m]))
