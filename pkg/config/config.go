package config

import "time"

// Config is the root configuration structure for Mercator Ganymede.
// It contains all configuration sections for the status server, provider
// integrations, rate limiting, caching, background sync, cost calculation,
// budgets, history storage, and telemetry.
type Config struct {
	// Server contains HTTP status server configuration including listen
	// address, timeouts, and connection limits.
	Server ServerConfig `yaml:"server"`

	// Providers contains configuration for all monitored provider
	// integrations. Keys are provider names (e.g., "openai", "anthropic",
	// "google", "ollama").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// RateLimits contains outbound rate limiting configuration governing
	// how often Ganymede polls each provider's APIs.
	RateLimits RateLimitsConfig `yaml:"rate_limits"`

	// Cache contains snapshot cache configuration including store sizing
	// and per-data-kind TTLs.
	Cache CacheConfig `yaml:"cache"`

	// Sync contains background synchronization configuration including
	// account and usage refresh cadences and retry behavior.
	Sync SyncConfig `yaml:"sync"`

	// Costs contains cost calculation configuration including the pricing
	// table location and hot-reload settings.
	Costs CostsConfig `yaml:"costs"`

	// Budgets contains per-provider spend budget configuration.
	Budgets BudgetsConfig `yaml:"budgets"`

	// History contains usage history storage configuration including
	// backend selection and retention.
	History HistoryConfig `yaml:"history"`

	// Secrets contains secret resolution configuration for provider
	// credentials referenced as env:// or file:// URIs.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing, and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP status server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:9090", "0.0.0.0:9090").
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// ProviderConfig contains configuration for a single monitored provider.
type ProviderConfig struct {
	// Type is the provider adapter type. If empty, it is inferred from the
	// provider name.
	// Options: "openai", "anthropic", "google", "ollama"
	Type string `yaml:"type"`

	// BaseURL is the base URL for the provider's API endpoint.
	// Example: "https://api.openai.com/v1"
	// Defaults to the provider's public endpoint when empty.
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider. Plain values are
	// used as-is; "env://VAR" and "file:///path" references are resolved
	// through the secret resolver at startup.
	// Required for hosted providers; ignored for ollama.
	APIKey string `yaml:"api_key"`

	// OrganizationID is the provider organization or workspace identifier,
	// required by some billing endpoints (e.g., OpenAI org usage).
	OrganizationID string `yaml:"organization_id"`

	// Timeout is the maximum duration for requests to this provider.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of HTTP retry attempts for transient
	// failures on a single fetch.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// RateLimitsConfig contains outbound rate limiting configuration.
// Each provider gets an independent sliding window; providers without an
// explicit policy use the Default policy.
type RateLimitsConfig struct {
	// Default is the policy applied to providers without an explicit entry
	// in ByProvider.
	// Default: 60 requests per 1m window.
	Default RateLimitPolicy `yaml:"default"`

	// ByProvider contains per-provider policies keyed by provider name.
	ByProvider map[string]RateLimitPolicy `yaml:"by_provider"`
}

// RateLimitPolicy defines a sliding-window request limit.
type RateLimitPolicy struct {
	// MaxRequests is the maximum number of requests permitted inside the
	// window. 0 means use the default policy.
	MaxRequests int `yaml:"max_requests"`

	// Window is the sliding window duration.
	// Default: 1m
	Window time.Duration `yaml:"window"`
}

// CacheConfig contains snapshot cache configuration.
type CacheConfig struct {
	// NumCounters is the number of keys to track frequency of. Should be
	// roughly 10x the expected number of live entries.
	// Default: 100000
	NumCounters int64 `yaml:"num_counters"`

	// MaxCost is the maximum total cost of the cache in bytes. Entry cost
	// is the serialized size of the stored value.
	// Default: 67108864 (64MB)
	MaxCost int64 `yaml:"max_cost"`

	// BufferItems is the number of keys per internal Get buffer.
	// Default: 64
	BufferItems int64 `yaml:"buffer_items"`

	// DefaultEntryCost is the cost charged for a value whose size cannot
	// be determined by serialization.
	// Default: 1024
	DefaultEntryCost int64 `yaml:"default_entry_cost"`

	// AccountTTL is the TTL for cached account snapshots. Account and plan
	// data changes slowly, so this is longer than UsageTTL.
	// Default: 15m
	AccountTTL time.Duration `yaml:"account_ttl"`

	// UsageTTL is the TTL for cached usage snapshots.
	// Default: 5m
	UsageTTL time.Duration `yaml:"usage_ttl"`

	// SummaryTTL is the TTL for the derived cross-provider summary.
	// Default: 5m
	SummaryTTL time.Duration `yaml:"summary_ttl"`

	// ProviderListTTL is the TTL for configured/unconfigured provider
	// lists. These only change on restart, so this is the longest TTL.
	// Default: 1h
	ProviderListTTL time.Duration `yaml:"provider_list_ttl"`
}

// SyncConfig contains background synchronization configuration.
type SyncConfig struct {
	// Enabled controls whether the background sync engine runs.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AccountInterval is how often account data is refreshed.
	// Default: 15m
	AccountInterval time.Duration `yaml:"account_interval"`

	// UsageInterval is how often usage data is refreshed.
	// Default: 5m
	UsageInterval time.Duration `yaml:"usage_interval"`

	// MaxRetryAttempts is the number of attempts for a failing sync cycle.
	// Retries use a fixed delay with no backoff.
	// Default: 3
	MaxRetryAttempts int `yaml:"max_retry_attempts"`

	// RetryDelay is the fixed delay between retry attempts.
	// Default: 5s
	RetryDelay time.Duration `yaml:"retry_delay"`

	// UsageLookbackDays is the usage window requested from providers during
	// background refresh.
	// Default: 30
	UsageLookbackDays int `yaml:"usage_lookback_days"`
}

// CostsConfig contains cost calculation configuration.
type CostsConfig struct {
	// PricingPath is the path to a YAML pricing table. When set, it is
	// loaded at startup and takes precedence over the inline Pricing map.
	PricingPath string `yaml:"pricing_path"`

	// Watch enables hot-reload of the pricing file on change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Pricing contains model pricing configurations by provider. Used when
	// PricingPath is empty, and as the fallback if the file fails to load.
	Pricing map[string]map[string]ModelPricingConfig `yaml:"pricing"`
}

// ModelPricingConfig contains pricing for a specific model.
type ModelPricingConfig struct {
	// Input is the cost per 1K input tokens in USD.
	Input float64 `yaml:"input"`

	// Output is the cost per 1K output tokens in USD.
	Output float64 `yaml:"output"`
}

// BudgetsConfig contains per-provider spend budget configuration.
// Budgets are observational: exceeding one raises the budget state in
// summaries and metrics but never blocks anything.
type BudgetsConfig struct {
	// Enabled controls whether budget evaluation is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// WarnRatio is the fraction of a budget at which the state becomes
	// "warning" (0.0 to 1.0).
	// Default: 0.8
	WarnRatio float64 `yaml:"warn_ratio"`

	// Monthly contains monthly budget limits in USD keyed by provider
	// name. The key "total" applies to combined spend across providers.
	Monthly map[string]float64 `yaml:"monthly"`
}

// HistoryConfig contains usage history storage configuration.
type HistoryConfig struct {
	// Enabled controls whether sync results are recorded to history.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention contains history retention configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite backend configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// Driver selects the SQL driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains history retention configuration.
type RetentionConfig struct {
	// Days is the number of days to retain history records.
	// 0 means keep records forever (no pruning).
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the scheduler.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`
}

// SecretsConfig contains secret resolution configuration.
type SecretsConfig struct {
	// CacheTTL is how long resolved secrets are cached.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxSize is the maximum number of cached secrets.
	// Default: 100
	CacheMaxSize int `yaml:"cache_max_size"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactCredentials redacts API keys and bearer tokens from log
	// attributes.
	// Default: true
	RedactCredentials bool `yaml:"redact_credentials"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "ganymede"
	Subsystem string `yaml:"subsystem"`

	// FetchDurationBuckets defines histogram buckets for provider fetch
	// duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0]
	FetchDurationBuckets []float64 `yaml:"fetch_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "mercator-ganymede"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1 (10%)
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// ExportTimeout is the timeout for OTLP exports.
	// Default: 10s
	ExportTimeout time.Duration `yaml:"export_timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// MinConnectedProviders is the minimum number of connected providers
	// required for the system to be considered ready.
	// Default: 1
	MinConnectedProviders int `yaml:"min_connected_providers"`
}
