package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	// Validate server configuration
	errs = append(errs, validateServer(&cfg.Server)...)

	// Validate providers configuration
	errs = append(errs, validateProviders(cfg.Providers)...)

	// Validate rate limits configuration
	errs = append(errs, validateRateLimits(&cfg.RateLimits)...)

	// Validate cache configuration
	errs = append(errs, validateCache(&cfg.Cache)...)

	// Validate sync configuration
	errs = append(errs, validateSync(&cfg.Sync)...)

	// Validate budgets configuration
	errs = append(errs, validateBudgets(&cfg.Budgets)...)

	// Validate history configuration
	errs = append(errs, validateHistory(&cfg.History)...)

	// Validate telemetry configuration
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates HTTP status server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	// Validate listen address is not empty
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	// Validate timeouts are positive
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	// Validate max header bytes is reasonable
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	return errs
}

// knownProviderTypes are the provider adapter types the factory can build.
var knownProviderTypes = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"google":    true,
	"ollama":    true,
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	for name, provider := range providers {
		fieldPrefix := fmt.Sprintf("providers.%s", name)

		if provider.Type != "" && !knownProviderTypes[provider.Type] {
			errs = append(errs, FieldError{
				Field:   fieldPrefix + ".type",
				Message: fmt.Sprintf("unknown provider type %q (supported: openai, anthropic, google, ollama)", provider.Type),
			})
		}

		// Validate base URL if provided
		if provider.BaseURL != "" {
			if _, err := url.Parse(provider.BaseURL); err != nil {
				errs = append(errs, FieldError{
					Field:   fieldPrefix + ".base_url",
					Message: fmt.Sprintf("invalid base URL: %v", err),
				})
			} else if !strings.HasPrefix(provider.BaseURL, "http://") && !strings.HasPrefix(provider.BaseURL, "https://") {
				errs = append(errs, FieldError{
					Field:   fieldPrefix + ".base_url",
					Message: "base URL must start with http:// or https://",
				})
			}
		}

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   fieldPrefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if provider.MaxRetries < 0 {
			errs = append(errs, FieldError{
				Field:   fieldPrefix + ".max_retries",
				Message: "max retries must be non-negative",
			})
		}
	}

	return errs
}

// validateRateLimits validates rate limit policies.
func validateRateLimits(cfg *RateLimitsConfig) []FieldError {
	var errs []FieldError

	if cfg.Default.MaxRequests < 0 {
		errs = append(errs, FieldError{
			Field:   "rate_limits.default.max_requests",
			Message: "max requests must be non-negative",
		})
	}
	if cfg.Default.Window < 0 {
		errs = append(errs, FieldError{
			Field:   "rate_limits.default.window",
			Message: "window must be positive",
		})
	}

	for name, policy := range cfg.ByProvider {
		fieldPrefix := fmt.Sprintf("rate_limits.by_provider.%s", name)

		if policy.MaxRequests < 0 {
			errs = append(errs, FieldError{
				Field:   fieldPrefix + ".max_requests",
				Message: "max requests must be non-negative",
			})
		}
		if policy.Window < 0 {
			errs = append(errs, FieldError{
				Field:   fieldPrefix + ".window",
				Message: "window must be positive",
			})
		}
	}

	return errs
}

// validateCache validates cache configuration.
func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.NumCounters < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.num_counters",
			Message: "num counters must be positive",
		})
	}
	if cfg.MaxCost < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.max_cost",
			Message: "max cost must be positive",
		})
	}
	if cfg.AccountTTL < 0 || cfg.UsageTTL < 0 || cfg.SummaryTTL < 0 || cfg.ProviderListTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "cache",
			Message: "TTLs must be positive",
		})
	}
	if cfg.AccountTTL > 0 && cfg.UsageTTL > 0 && cfg.AccountTTL < cfg.UsageTTL {
		errs = append(errs, FieldError{
			Field:   "cache.account_ttl",
			Message: "account TTL should not be shorter than usage TTL",
		})
	}

	return errs
}

// validateSync validates background sync configuration.
func validateSync(cfg *SyncConfig) []FieldError {
	var errs []FieldError

	if cfg.AccountInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "sync.account_interval",
			Message: "account interval must be positive",
		})
	}
	if cfg.UsageInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "sync.usage_interval",
			Message: "usage interval must be positive",
		})
	}
	if cfg.MaxRetryAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "sync.max_retry_attempts",
			Message: "max retry attempts must be at least 1",
		})
	}
	if cfg.RetryDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "sync.retry_delay",
			Message: "retry delay must be non-negative",
		})
	}
	if cfg.UsageLookbackDays < 1 {
		errs = append(errs, FieldError{
			Field:   "sync.usage_lookback_days",
			Message: "usage lookback days must be at least 1",
		})
	}

	return errs
}

// validateBudgets validates budget configuration.
func validateBudgets(cfg *BudgetsConfig) []FieldError {
	var errs []FieldError

	if cfg.WarnRatio < 0 || cfg.WarnRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "budgets.warn_ratio",
			Message: "warn ratio must be between 0.0 and 1.0",
		})
	}
	for name, limit := range cfg.Monthly {
		if limit < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("budgets.monthly.%s", name),
				Message: "budget limit must be non-negative",
			})
		}
	}

	return errs
}

// validateHistory validates history storage configuration.
func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if cfg.Backend != "" && cfg.Backend != "memory" && cfg.Backend != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: fmt.Sprintf("unsupported backend %q (supported: memory, sqlite)", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "history.sqlite.path",
				Message: "database path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.Driver != "" && cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "history.sqlite.driver",
				Message: fmt.Sprintf("unsupported driver %q (supported: sqlite, sqlite3)", cfg.SQLite.Driver),
			})
		}
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.max_records",
			Message: "max records must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (supported: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	// Validate logging format
	switch cfg.Logging.Format {
	case "", "json", "text":
		// Valid
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (supported: json, text)", cfg.Logging.Format),
		})
	}

	// Validate tracing
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	// Validate health
	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be positive",
		})
	}
	if cfg.Health.MinConnectedProviders < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.min_connected_providers",
			Message: "min connected providers must be non-negative",
		})
	}

	return errs
}
