package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Sync outcome label values.
const (
	SyncOutcomeSuccess = "success"
	SyncOutcomeFailure = "failure"
)

// SyncMetrics tracks the background sync engine.
//
// Metrics:
//   - mercator_ganymede_sync_runs_total: Completed sync runs by kind and outcome
//   - mercator_ganymede_sync_retries_total: Retry attempts by kind
//   - mercator_ganymede_sync_last_run_timestamp_seconds: Unix time of the last run by kind
//   - mercator_ganymede_sync_running: Whether the background loop is active
//
// The sync label is "account" or "usage", matching the engine's two
// cadences. A run counts once per retry envelope, not once per attempt;
// attempts beyond the first count as retries.
type SyncMetrics struct {
	// Completed envelope counter by sync kind and outcome
	runsTotal *prometheus.CounterVec

	// Retry attempt counter by sync kind
	retriesTotal *prometheus.CounterVec

	// Unix timestamp of the last completed run by sync kind
	lastRun *prometheus.GaugeVec

	// Background loop state (gauge: 1=running, 0=stopped)
	running prometheus.Gauge
}

// NewSyncMetrics creates and registers sync metrics with the provided registry.
func NewSyncMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *SyncMetrics {
	sm := &SyncMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_runs_total",
				Help:      "Total number of completed sync runs by kind and outcome",
			},
			[]string{"sync", "outcome"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_retries_total",
				Help:      "Total number of sync retry attempts by kind",
			},
			[]string{"sync"},
		),

		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last completed sync run by kind",
			},
			[]string{"sync"},
		),

		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_running",
				Help:      "Whether the background sync loop is active (1=running, 0=stopped)",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		sm.runsTotal,
		sm.retriesTotal,
		sm.lastRun,
		sm.running,
	)

	return sm
}

// RecordRun records one completed retry envelope.
//
// Parameters:
//   - kind: Sync kind ("account" or "usage")
//   - success: true if any attempt in the envelope succeeded
func (sm *SyncMetrics) RecordRun(kind string, success bool) {
	outcome := SyncOutcomeFailure
	if success {
		outcome = SyncOutcomeSuccess
	}
	sm.runsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRetry records one retry attempt inside an envelope.
//
// Parameters:
//   - kind: Sync kind
func (sm *SyncMetrics) RecordRetry(kind string) {
	sm.retriesTotal.WithLabelValues(kind).Inc()
}

// SetLastRun records when a sync kind last completed, successfully or not.
//
// Parameters:
//   - kind: Sync kind
//   - t: Completion time
func (sm *SyncMetrics) SetLastRun(kind string, t time.Time) {
	sm.lastRun.WithLabelValues(kind).Set(float64(t.Unix()))
}

// SetRunning updates the background loop state gauge.
//
// Parameters:
//   - running: true while the scheduling loop is active
func (sm *SyncMetrics) SetRunning(running bool) {
	value := 0.0
	if running {
		value = 1.0
	}
	sm.running.Set(value)
}
