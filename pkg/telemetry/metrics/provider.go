package metrics

import (
	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch kind label values.
const (
	FetchKindAccount = "account"
	FetchKindUsage   = "usage"
)

// Fetch outcome label values. Rate-limited fetches never reach the
// provider, so they carry no duration observation.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
)

// ProviderMetrics tracks upstream fetch activity and provider state.
//
// Metrics:
//   - mercator_ganymede_provider_fetches_total: Fetch count by provider, kind, and outcome
//   - mercator_ganymede_provider_fetch_duration_seconds: Upstream fetch latency
//   - mercator_ganymede_provider_connected: Provider connectivity (1=connected, 0=not)
//   - mercator_ganymede_providers_configured: Number of providers with credentials
type ProviderMetrics struct {
	// Fetch counter by provider, kind (account/usage), and outcome
	fetchesTotal *prometheus.CounterVec

	// Upstream fetch latency histogram
	fetchDuration *prometheus.HistogramVec

	// Provider connectivity (gauge: 1=connected, 0=not connected)
	connected *prometheus.GaugeVec

	// Number of providers with resolvable credentials
	configured prometheus.Gauge
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_fetches_total",
				Help:      "Total number of provider fetches by kind and outcome",
			},
			[]string{"provider", "kind", "outcome"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_fetch_duration_seconds",
				Help:      "Upstream fetch duration in seconds",
				Buckets:   cfg.FetchDurationBuckets,
			},
			[]string{"provider", "kind"},
		),

		connected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_connected",
				Help:      "Provider connectivity (1=connected, 0=not connected)",
			},
			[]string{"provider"},
		),

		configured: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "providers_configured",
				Help:      "Number of providers with resolvable credentials",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		pm.fetchesTotal,
		pm.fetchDuration,
		pm.connected,
		pm.configured,
	)

	return pm
}

// RecordFetch records one fetch attempt.
//
// Parameters:
//   - provider: Provider name (e.g., "openai", "anthropic")
//   - kind: Fetch kind (FetchKindAccount or FetchKindUsage)
//   - outcome: Fetch outcome (OutcomeSuccess, OutcomeError, OutcomeRateLimited)
func (pm *ProviderMetrics) RecordFetch(provider, kind, outcome string) {
	pm.fetchesTotal.WithLabelValues(provider, kind, outcome).Inc()
}

// ObserveFetchDuration records the duration of one upstream fetch.
// Only fetches that actually reached the provider should be observed;
// rate-limited skips have no duration.
//
// Parameters:
//   - provider: Provider name
//   - kind: Fetch kind
//   - seconds: Fetch duration in seconds
func (pm *ProviderMetrics) ObserveFetchDuration(provider, kind string, seconds float64) {
	pm.fetchDuration.WithLabelValues(provider, kind).Observe(seconds)
}

// UpdateConnected updates the connectivity gauge for a provider.
//
// Parameters:
//   - provider: Provider name
//   - connected: true if the provider API answered the last probe
func (pm *ProviderMetrics) UpdateConnected(provider string, connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	pm.connected.WithLabelValues(provider).Set(value)
}

// SetConfigured sets the number of providers with credentials.
//
// Parameters:
//   - count: Number of configured providers
func (pm *ProviderMetrics) SetConfigured(count int) {
	pm.configured.Set(float64(count))
}
