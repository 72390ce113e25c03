package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9090"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Provider defaults
	DefaultProviderTimeout    = 30 * time.Second
	DefaultProviderMaxRetries = 2

	// Rate limit defaults. Providers without an explicit policy fall back
	// to a conservative 60 requests per minute.
	DefaultRateLimitMaxRequests = 60
	DefaultRateLimitWindow      = 1 * time.Minute

	// Cache defaults
	DefaultCacheNumCounters = int64(100_000)
	DefaultCacheMaxCost     = int64(64 << 20) // 64MB
	DefaultCacheBufferItems = int64(64)
	DefaultCacheEntryCost   = int64(1024)
	DefaultAccountTTL       = 15 * time.Minute
	DefaultUsageTTL         = 5 * time.Minute
	DefaultSummaryTTL       = 5 * time.Minute
	DefaultProviderListTTL  = 1 * time.Hour

	// Sync defaults
	DefaultSyncEnabled       = true
	DefaultAccountInterval   = 15 * time.Minute
	DefaultUsageInterval     = 5 * time.Minute
	DefaultMaxRetryAttempts  = 3
	DefaultRetryDelay        = 5 * time.Second
	DefaultUsageLookbackDays = 30

	// Budget defaults
	DefaultBudgetWarnRatio = 0.8

	// History defaults
	DefaultHistoryBackend           = "memory"
	DefaultHistorySQLitePath        = "data/history.db"
	DefaultHistorySQLiteDriver      = "sqlite"
	DefaultHistorySQLiteOpenConns   = 10
	DefaultHistorySQLiteIdleConns   = 5
	DefaultHistorySQLiteBusyTimeout = 5 * time.Second
	DefaultHistoryRetentionDays     = 90
	DefaultHistoryPruneSchedule     = "0 3 * * *"

	// Secrets defaults
	DefaultSecretsCacheTTL     = 5 * time.Minute
	DefaultSecretsCacheMaxSize = 100

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "mercator"
	DefaultMetricsSubsystem   = "ganymede"
	DefaultTracingServiceName = "mercator-ganymede"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingTimeout     = 10 * time.Second

	// Health defaults
	DefaultHealthEnabled         = true
	DefaultLivenessPath          = "/health"
	DefaultReadinessPath         = "/ready"
	DefaultVersionPath           = "/version"
	DefaultHealthCheckTimeout    = 5 * time.Second
	DefaultMinConnectedProviders = 1
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Provider defaults - applied to each provider
	for name, provider := range cfg.Providers {
		if provider.Type == "" {
			provider.Type = name
		}
		if provider.Timeout == 0 {
			provider.Timeout = DefaultProviderTimeout
		}
		if provider.MaxRetries == 0 {
			provider.MaxRetries = DefaultProviderMaxRetries
		}
		// Update the provider in the map
		cfg.Providers[name] = provider
	}

	// Rate limit defaults
	if cfg.RateLimits.Default.MaxRequests == 0 {
		cfg.RateLimits.Default.MaxRequests = DefaultRateLimitMaxRequests
	}
	if cfg.RateLimits.Default.Window == 0 {
		cfg.RateLimits.Default.Window = DefaultRateLimitWindow
	}
	for name, policy := range cfg.RateLimits.ByProvider {
		if policy.MaxRequests == 0 {
			policy.MaxRequests = cfg.RateLimits.Default.MaxRequests
		}
		if policy.Window == 0 {
			policy.Window = cfg.RateLimits.Default.Window
		}
		cfg.RateLimits.ByProvider[name] = policy
	}

	// Cache defaults
	if cfg.Cache.NumCounters == 0 {
		cfg.Cache.NumCounters = DefaultCacheNumCounters
	}
	if cfg.Cache.MaxCost == 0 {
		cfg.Cache.MaxCost = DefaultCacheMaxCost
	}
	if cfg.Cache.BufferItems == 0 {
		cfg.Cache.BufferItems = DefaultCacheBufferItems
	}
	if cfg.Cache.DefaultEntryCost == 0 {
		cfg.Cache.DefaultEntryCost = DefaultCacheEntryCost
	}
	if cfg.Cache.AccountTTL == 0 {
		cfg.Cache.AccountTTL = DefaultAccountTTL
	}
	if cfg.Cache.UsageTTL == 0 {
		cfg.Cache.UsageTTL = DefaultUsageTTL
	}
	if cfg.Cache.SummaryTTL == 0 {
		cfg.Cache.SummaryTTL = DefaultSummaryTTL
	}
	if cfg.Cache.ProviderListTTL == 0 {
		cfg.Cache.ProviderListTTL = DefaultProviderListTTL
	}

	// Sync defaults
	if cfg.Sync.AccountInterval == 0 {
		cfg.Sync.AccountInterval = DefaultAccountInterval
	}
	if cfg.Sync.UsageInterval == 0 {
		cfg.Sync.UsageInterval = DefaultUsageInterval
	}
	if cfg.Sync.MaxRetryAttempts == 0 {
		cfg.Sync.MaxRetryAttempts = DefaultMaxRetryAttempts
	}
	if cfg.Sync.RetryDelay == 0 {
		cfg.Sync.RetryDelay = DefaultRetryDelay
	}
	if cfg.Sync.UsageLookbackDays == 0 {
		cfg.Sync.UsageLookbackDays = DefaultUsageLookbackDays
	}

	// Budget defaults
	if cfg.Budgets.WarnRatio == 0 {
		cfg.Budgets.WarnRatio = DefaultBudgetWarnRatio
	}

	// History defaults
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.SQLite.Path == "" {
		cfg.History.SQLite.Path = DefaultHistorySQLitePath
	}
	if cfg.History.SQLite.Driver == "" {
		cfg.History.SQLite.Driver = DefaultHistorySQLiteDriver
	}
	if cfg.History.SQLite.MaxOpenConns == 0 {
		cfg.History.SQLite.MaxOpenConns = DefaultHistorySQLiteOpenConns
	}
	if cfg.History.SQLite.MaxIdleConns == 0 {
		cfg.History.SQLite.MaxIdleConns = DefaultHistorySQLiteIdleConns
	}
	if cfg.History.SQLite.BusyTimeout == 0 {
		cfg.History.SQLite.BusyTimeout = DefaultHistorySQLiteBusyTimeout
	}
	if cfg.History.Retention.Days == 0 {
		cfg.History.Retention.Days = DefaultHistoryRetentionDays
	}
	if cfg.History.Retention.PruneSchedule == "" {
		cfg.History.Retention.PruneSchedule = DefaultHistoryPruneSchedule
	}

	// Secrets defaults
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	}
	if cfg.Secrets.CacheMaxSize == 0 {
		cfg.Secrets.CacheMaxSize = DefaultSecretsCacheMaxSize
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.FetchDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.FetchDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ExportTimeout == 0 {
		cfg.Telemetry.Tracing.ExportTimeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Telemetry.Health.MinConnectedProviders == 0 {
		cfg.Telemetry.Health.MinConnectedProviders = DefaultMinConnectedProviders
	}
}

// DefaultConfig returns a Config populated entirely with default values.
// Boolean fields that default to true (sync, metrics, health) are set
// explicitly since ApplyDefaults cannot distinguish false from unset.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Sync.Enabled = DefaultSyncEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	cfg.Telemetry.Logging.RedactCredentials = true
	ApplyDefaults(cfg)
	return cfg
}
