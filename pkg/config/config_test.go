package config

import (
	"testing"
	"time"
)

// ============================================================
// Defaults
// ============================================================

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout %v, got %v", DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	}
	if cfg.RateLimits.Default.MaxRequests != DefaultRateLimitMaxRequests {
		t.Errorf("expected default max requests %d, got %d", DefaultRateLimitMaxRequests, cfg.RateLimits.Default.MaxRequests)
	}
	if cfg.RateLimits.Default.Window != DefaultRateLimitWindow {
		t.Errorf("expected default window %v, got %v", DefaultRateLimitWindow, cfg.RateLimits.Default.Window)
	}
	if cfg.Cache.AccountTTL != DefaultAccountTTL {
		t.Errorf("expected default account TTL %v, got %v", DefaultAccountTTL, cfg.Cache.AccountTTL)
	}
	if cfg.Cache.UsageTTL != DefaultUsageTTL {
		t.Errorf("expected default usage TTL %v, got %v", DefaultUsageTTL, cfg.Cache.UsageTTL)
	}
	if cfg.Cache.AccountTTL < cfg.Cache.UsageTTL {
		t.Error("default account TTL must not be shorter than usage TTL")
	}
	if cfg.Sync.MaxRetryAttempts != DefaultMaxRetryAttempts {
		t.Errorf("expected default retry attempts %d, got %d", DefaultMaxRetryAttempts, cfg.Sync.MaxRetryAttempts)
	}
	if cfg.History.Backend != DefaultHistoryBackend {
		t.Errorf("expected default history backend %q, got %q", DefaultHistoryBackend, cfg.History.Backend)
	}
	if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("expected default namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.ListenAddress = "0.0.0.0:7000"
	cfg.Sync.UsageInterval = 90 * time.Second
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("explicit listen address overwritten: %q", cfg.Server.ListenAddress)
	}
	if cfg.Sync.UsageInterval != 90*time.Second {
		t.Errorf("explicit usage interval overwritten: %v", cfg.Sync.UsageInterval)
	}
	// Unset sibling still defaulted
	if cfg.Sync.AccountInterval != DefaultAccountInterval {
		t.Errorf("expected default account interval %v, got %v", DefaultAccountInterval, cfg.Sync.AccountInterval)
	}
}

func TestApplyDefaults_ProviderPolicyFill(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"openai": {APIKey: "k"},
		},
		RateLimits: RateLimitsConfig{
			ByProvider: map[string]RateLimitPolicy{
				"openai": {MaxRequests: 30},
			},
		},
	}
	ApplyDefaults(cfg)

	provider := cfg.Providers["openai"]
	if provider.Type != "openai" {
		t.Errorf("expected inferred type %q, got %q", "openai", provider.Type)
	}
	if provider.Timeout != DefaultProviderTimeout {
		t.Errorf("expected default provider timeout %v, got %v", DefaultProviderTimeout, provider.Timeout)
	}

	policy := cfg.RateLimits.ByProvider["openai"]
	if policy.MaxRequests != 30 {
		t.Errorf("explicit max requests overwritten: %d", policy.MaxRequests)
	}
	if policy.Window != DefaultRateLimitWindow {
		t.Errorf("expected window filled from default, got %v", policy.Window)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != first.Server.ListenAddress ||
		cfg.Cache.MaxCost != first.Cache.MaxCost ||
		cfg.Sync.RetryDelay != first.Sync.RetryDelay {
		t.Error("ApplyDefaults is not idempotent")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Sync.Enabled {
		t.Error("expected sync enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if !cfg.Telemetry.Health.Enabled {
		t.Error("expected health endpoints enabled by default")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

// ============================================================
// Singleton
// ============================================================

func TestSingleton_SetAndGet(t *testing.T) {
	defer SetConfig(nil)

	cfg := DefaultConfig()
	SetConfig(cfg)

	got := GetConfig()
	if got != cfg {
		t.Error("GetConfig returned different instance than SetConfig stored")
	}
}

func TestSingleton_GetBeforeInitialize(t *testing.T) {
	defer SetConfig(nil)

	SetConfig(nil)
	if got := GetConfig(); got != nil {
		t.Errorf("expected nil config before initialization, got %+v", got)
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	defer SetConfig(nil)
	SetConfig(nil)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustGetConfig to panic without initialization")
		}
	}()
	MustGetConfig()
}
