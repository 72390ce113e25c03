package providers

import "time"

// AccountInfo is a point-in-time snapshot of a provider account.
// It is normalized from provider-specific billing and subscription formats.
//
// Snapshots are immutable once returned: adapters build a fresh value per
// fetch, and the monitor caches the pointer without copying.
type AccountInfo struct {
	// Provider is the provider name this snapshot belongs to
	Provider string `json:"provider"`

	// IsConnected indicates whether the provider API answered the probe
	IsConnected bool `json:"is_connected"`

	// Balance is the remaining prepaid credit, if the provider exposes one.
	// Nil when the provider has no balance concept (subscription or local).
	Balance *float64 `json:"balance,omitempty"`

	// Currency is the ISO 4217 code for Balance (e.g., "USD")
	Currency string `json:"currency,omitempty"`

	// PlanType describes the billing arrangement
	// (free, pay-as-you-go, subscription, enterprise, local)
	PlanType string `json:"plan_type,omitempty"`

	// Diagnostics carries provider-specific detail that has no normalized
	// field: organization IDs, daemon versions, quota notes
	Diagnostics map[string]string `json:"diagnostics,omitempty"`

	// CheckedAt is when this snapshot was taken
	CheckedAt time.Time `json:"checked_at"`
}

// UsageInfo is aggregated consumption for one provider over a time window.
// It is normalized from provider-specific usage report formats.
type UsageInfo struct {
	// Provider is the provider name this report belongs to
	Provider string `json:"provider"`

	// StartDate is the inclusive start of the reporting window
	StartDate time.Time `json:"start_date"`

	// EndDate is the exclusive end of the reporting window
	EndDate time.Time `json:"end_date"`

	// TotalCost is the total spend over the window, in the account currency.
	// Computed from the pricing table when the provider reports tokens only.
	TotalCost float64 `json:"total_cost"`

	// TotalRequests is the number of API requests over the window
	TotalRequests int64 `json:"total_requests"`

	// TotalTokens is the combined input and output token count
	TotalTokens int64 `json:"total_tokens"`

	// ModelUsage breaks the totals down per model, when the provider
	// reports that granularity
	ModelUsage []ModelUsage `json:"model_usage,omitempty"`
}

// ModelUsage is the per-model slice of a usage report.
type ModelUsage struct {
	// Model is the model identifier as reported by the provider
	Model string `json:"model"`

	// Requests is the number of requests made to this model
	Requests int64 `json:"requests"`

	// InputTokens is the number of prompt tokens consumed
	InputTokens int64 `json:"input_tokens"`

	// OutputTokens is the number of completion tokens generated
	OutputTokens int64 `json:"output_tokens"`

	// Cost is the spend attributed to this model
	Cost float64 `json:"cost"`
}

// TotalTokens returns the combined token count for this model.
func (m ModelUsage) TotalTokens() int64 {
	return m.InputTokens + m.OutputTokens
}

// ProviderConfig contains configuration for a single provider adapter.
// This is a subset of config.ProviderConfig with only the fields needed by
// adapters, with secret references already resolved to literal values.
type ProviderConfig struct {
	// Name is the provider identifier (e.g., "openai", "anthropic")
	Name string

	// Type is the adapter type (openai, anthropic, google, ollama)
	Type string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the resolved authentication key (empty for local daemons)
	APIKey string

	// OrganizationID scopes requests for providers with org-level billing
	OrganizationID string

	// Timeout is the request timeout duration
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for transient errors
	MaxRetries int

	// RetryDelay is the fixed delay between retry attempts
	RetryDelay time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// ClientStats tracks request outcomes for one adapter's HTTP client.
// The counters feed AccountInfo diagnostics and the status API.
type ClientStats struct {
	// TotalRequests is the total number of requests sent upstream
	TotalRequests int64

	// FailedRequests is the total number of failed requests
	FailedRequests int64

	// LastSuccess is the timestamp of the last successful request
	// (zero if none has succeeded yet)
	LastSuccess time.Time

	// LastError is the most recent error encountered (nil after a success)
	LastError error
}

// Provider name constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Plan type constants
const (
	PlanTypeFree         = "free"
	PlanTypePayAsYouGo   = "pay-as-you-go"
	PlanTypeSubscription = "subscription"
	PlanTypeEnterprise   = "enterprise"
	PlanTypeLocal        = "local"
)
