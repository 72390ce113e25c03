package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GANYMEDE_SECTION_FIELD (e.g., GANYMEDE_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format GANYMEDE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("GANYMEDE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("GANYMEDE_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Provider overrides - we need to handle dynamic provider names.
	// The factory's known adapter types are covered here.
	applyProviderEnvOverrides(cfg, "openai")
	applyProviderEnvOverrides(cfg, "anthropic")
	applyProviderEnvOverrides(cfg, "google")
	applyProviderEnvOverrides(cfg, "ollama")

	// Sync overrides
	if val := os.Getenv("GANYMEDE_SYNC_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Sync.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_SYNC_ACCOUNT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Sync.AccountInterval = d
		}
	}
	if val := os.Getenv("GANYMEDE_SYNC_USAGE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Sync.UsageInterval = d
		}
	}
	if val := os.Getenv("GANYMEDE_SYNC_USAGE_LOOKBACK_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Sync.UsageLookbackDays = i
		}
	}

	// History overrides
	if val := os.Getenv("GANYMEDE_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_HISTORY_BACKEND"); val != "" {
		cfg.History.Backend = val
	}
	if val := os.Getenv("GANYMEDE_HISTORY_SQLITE_PATH"); val != "" {
		cfg.History.SQLite.Path = val
	}
	if val := os.Getenv("GANYMEDE_HISTORY_SQLITE_DRIVER"); val != "" {
		cfg.History.SQLite.Driver = val
	}
	if val := os.Getenv("GANYMEDE_HISTORY_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.History.Retention.Days = i
		}
	}

	// Costs overrides
	if val := os.Getenv("GANYMEDE_COSTS_PRICING_PATH"); val != "" {
		cfg.Costs.PricingPath = val
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

// applyProviderEnvOverrides applies environment overrides for a single
// provider. Variables use the format GANYMEDE_PROVIDER_<NAME>_<FIELD>, e.g.
// GANYMEDE_PROVIDER_OPENAI_API_KEY.
func applyProviderEnvOverrides(cfg *Config, name string) {
	prefix := "GANYMEDE_PROVIDER_" + envName(name) + "_"

	provider, exists := cfg.Providers[name]

	apiKey := os.Getenv(prefix + "API_KEY")
	baseURL := os.Getenv(prefix + "BASE_URL")
	orgID := os.Getenv(prefix + "ORGANIZATION_ID")

	if apiKey == "" && baseURL == "" && orgID == "" {
		return
	}

	// Creating the entry on demand lets a provider be configured entirely
	// from the environment.
	if !exists {
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]ProviderConfig)
		}
		provider = ProviderConfig{
			Type:       name,
			Timeout:    DefaultProviderTimeout,
			MaxRetries: DefaultProviderMaxRetries,
		}
	}

	if apiKey != "" {
		provider.APIKey = apiKey
	}
	if baseURL != "" {
		provider.BaseURL = baseURL
	}
	if orgID != "" {
		provider.OrganizationID = orgID
	}

	cfg.Providers[name] = provider
}

// envName converts a provider name to its environment variable segment.
func envName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
