package metrics

import (
	"strconv"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SpendMetrics tracks observed spend, account balances, and budget state.
//
// Metrics:
//   - mercator_ganymede_usage_cost_usd: Spend over a lookback window by provider
//   - mercator_ganymede_usage_requests: Requests over a lookback window by provider
//   - mercator_ganymede_usage_tokens: Tokens over a lookback window by provider
//   - mercator_ganymede_model_cost_usd: Spend by provider and model
//   - mercator_ganymede_account_balance_usd: Remaining prepaid credit by provider
//   - mercator_ganymede_budget_limit_usd / budget_used_usd / budget_spend_ratio / budget_state
//
// Spend is a level reported by the provider for a trailing window, not
// an event stream, so these are gauges: each fetch overwrites the last
// reading. The window label is the lookback in days ("7", "30").
type SpendMetrics struct {
	// Spend over the window by provider (USD)
	usageCost *prometheus.GaugeVec

	// Request count over the window by provider
	usageRequests *prometheus.GaugeVec

	// Token count over the window by provider
	usageTokens *prometheus.GaugeVec

	// Spend by provider and model (USD)
	modelCost *prometheus.GaugeVec

	// Remaining prepaid credit by provider (USD)
	accountBalance *prometheus.GaugeVec

	// Configured monthly budget by provider (USD)
	budgetLimit *prometheus.GaugeVec

	// Observed spend against the budget by provider (USD)
	budgetUsed *prometheus.GaugeVec

	// Used over limit; above 1.0 means overspend
	budgetRatio *prometheus.GaugeVec

	// Budget state (0=ok, 1=warning, 2=exceeded)
	budgetState *prometheus.GaugeVec
}

// NewSpendMetrics creates and registers spend metrics with the provided registry.
func NewSpendMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *SpendMetrics {
	sm := &SpendMetrics{
		usageCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "usage_cost_usd",
				Help:      "Spend over the lookback window in USD by provider",
			},
			[]string{"provider", "window"},
		),

		usageRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "usage_requests",
				Help:      "API requests over the lookback window by provider",
			},
			[]string{"provider", "window"},
		),

		usageTokens: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "usage_tokens",
				Help:      "Tokens consumed over the lookback window by provider",
			},
			[]string{"provider", "window"},
		),

		modelCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "model_cost_usd",
				Help:      "Spend over the lookback window in USD by provider and model",
			},
			[]string{"provider", "model", "window"},
		),

		accountBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "account_balance_usd",
				Help:      "Remaining prepaid credit in USD by provider",
			},
			[]string{"provider"},
		),

		budgetLimit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_limit_usd",
				Help:      "Configured monthly budget in USD by provider",
			},
			[]string{"provider"},
		),

		budgetUsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_used_usd",
				Help:      "Observed spend against the budget in USD by provider",
			},
			[]string{"provider"},
		),

		budgetRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_spend_ratio",
				Help:      "Observed spend over the budget limit; above 1.0 means overspend",
			},
			[]string{"provider"},
		),

		budgetState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_state",
				Help:      "Budget state by provider (0=ok, 1=warning, 2=exceeded)",
			},
			[]string{"provider"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		sm.usageCost,
		sm.usageRequests,
		sm.usageTokens,
		sm.modelCost,
		sm.accountBalance,
		sm.budgetLimit,
		sm.budgetUsed,
		sm.budgetRatio,
		sm.budgetState,
	)

	return sm
}

// UpdateUsage records the window totals from one usage report.
//
// Parameters:
//   - provider: Provider name
//   - windowDays: Lookback window in days
//   - costUSD: Total spend over the window
//   - requests: Total API requests over the window
//   - tokens: Total tokens over the window
//
// Example:
//
//	sm.UpdateUsage("openai", 30, 142.50, 9100, 48_000_000)
func (sm *SpendMetrics) UpdateUsage(provider string, windowDays int, costUSD float64, requests, tokens int64) {
	window := windowLabel(windowDays)
	sm.usageCost.WithLabelValues(provider, window).Set(costUSD)
	sm.usageRequests.WithLabelValues(provider, window).Set(float64(requests))
	sm.usageTokens.WithLabelValues(provider, window).Set(float64(tokens))
}

// UpdateModelCost records the per-model slice of a usage report.
//
// Parameters:
//   - provider: Provider name
//   - model: Model identifier as reported by the provider
//   - windowDays: Lookback window in days
//   - costUSD: Spend attributed to this model over the window
func (sm *SpendMetrics) UpdateModelCost(provider, model string, windowDays int, costUSD float64) {
	sm.modelCost.WithLabelValues(provider, model, windowLabel(windowDays)).Set(costUSD)
}

// UpdateBalance records the remaining prepaid credit for a provider.
// Providers without a balance concept never call this.
//
// Parameters:
//   - provider: Provider name
//   - balanceUSD: Remaining credit in USD
func (sm *SpendMetrics) UpdateBalance(provider string, balanceUSD float64) {
	sm.accountBalance.WithLabelValues(provider).Set(balanceUSD)
}

// UpdateBudget records one budget evaluation.
//
// Parameters:
//   - provider: Provider name, or "total" for combined spend
//   - state: Budget state ("ok", "warning", "exceeded")
//   - limitUSD: Configured monthly budget
//   - usedUSD: Observed spend
//   - ratio: Used over limit
func (sm *SpendMetrics) UpdateBudget(provider, state string, limitUSD, usedUSD, ratio float64) {
	sm.budgetLimit.WithLabelValues(provider).Set(limitUSD)
	sm.budgetUsed.WithLabelValues(provider).Set(usedUSD)
	sm.budgetRatio.WithLabelValues(provider).Set(ratio)
	sm.budgetState.WithLabelValues(provider).Set(budgetStateValue(state))
}

// budgetStateValue maps a budget state to its gauge encoding.
// Unrecognized states report as ok rather than inventing a level.
func budgetStateValue(state string) float64 {
	switch state {
	case "warning":
		return 1
	case "exceeded":
		return 2
	default:
		return 0
	}
}

// windowLabel renders a lookback window as a label value.
func windowLabel(days int) string {
	return strconv.Itoa(days)
}
