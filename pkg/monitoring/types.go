package monitoring

import (
	"time"

	"mercator-hq/ganymede/pkg/budget"
	"mercator-hq/ganymede/pkg/providers"
)

// UsageSummary is the joined view across all monitored providers:
// connectivity from the account path, spend from the usage path, and
// health from the rate limiter, derived in one pass.
type UsageSummary struct {
	// GeneratedAt is when this summary was computed
	GeneratedAt time.Time `json:"generated_at"`

	// WindowDays is the usage lookback window the figures cover
	WindowDays int `json:"window_days"`

	// ProviderCount is the number of monitored providers
	ProviderCount int `json:"provider_count"`

	// ConnectedProviders is how many providers answered their last
	// account probe
	ConnectedProviders int `json:"connected_providers"`

	// TotalCost is the combined spend across providers over the window
	TotalCost float64 `json:"total_cost"`

	// TotalRequests is the combined request count over the window
	TotalRequests int64 `json:"total_requests"`

	// TotalTokens is the combined token count over the window
	TotalTokens int64 `json:"total_tokens"`

	// AverageSuccessRate is the mean of per-provider upstream success
	// ratios as recorded by the rate limiter
	AverageSuccessRate float64 `json:"average_success_rate"`

	// Providers joins each provider's connection status with its usage
	// figures
	Providers map[string]*ProviderSummary `json:"providers"`

	// Budgets holds spend-versus-budget evaluations, when budgets are
	// configured
	Budgets []*budget.Status `json:"budgets,omitempty"`
}

// ProviderSummary is one provider's slice of the summary.
type ProviderSummary struct {
	// Provider is the provider name
	Provider string `json:"provider"`

	// IsConnected reports whether the last account probe succeeded
	IsConnected bool `json:"is_connected"`

	// Balance is the remaining prepaid credit, when the provider
	// exposes one
	Balance *float64 `json:"balance,omitempty"`

	// Currency is the ISO 4217 code for Balance
	Currency string `json:"currency,omitempty"`

	// PlanType describes the billing arrangement
	PlanType string `json:"plan_type,omitempty"`

	// TotalCost is this provider's spend over the window
	TotalCost float64 `json:"total_cost"`

	// TotalRequests is this provider's request count over the window
	TotalRequests int64 `json:"total_requests"`

	// TotalTokens is this provider's token count over the window
	TotalTokens int64 `json:"total_tokens"`

	// ModelUsage breaks the figures down per model, when reported
	ModelUsage []providers.ModelUsage `json:"model_usage,omitempty"`
}
