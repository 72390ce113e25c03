package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:              true,
		Namespace:            "test",
		Subsystem:            "metrics",
		FetchDurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

// TestCollector_NewCollector tests collector creation
func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
	if !collector.enabled() {
		t.Error("Expected collector to be enabled")
	}
}

// TestCollector_Defaults tests that zero-valued settings pick up defaults
func TestCollector_Defaults(t *testing.T) {
	collector := NewCollector(config.MetricsConfig{Enabled: true}, nil)

	if collector.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Expected namespace %q, got %q", config.DefaultMetricsNamespace, collector.config.Namespace)
	}
	if collector.config.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("Expected subsystem %q, got %q", config.DefaultMetricsSubsystem, collector.config.Subsystem)
	}
	if len(collector.config.FetchDurationBuckets) == 0 {
		t.Error("Expected default fetch duration buckets")
	}
	if collector.registry == nil {
		t.Error("Expected a private registry when none is provided")
	}
}

// TestCollector_RecordFetch tests fetch recording
func TestCollector_RecordFetch(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	tests := []struct {
		name     string
		provider string
		kind     string
		outcome  string
		duration time.Duration
	}{
		{
			name:     "successful account fetch",
			provider: "openai",
			kind:     FetchKindAccount,
			outcome:  OutcomeSuccess,
			duration: 420 * time.Millisecond,
		},
		{
			name:     "failed usage fetch",
			provider: "anthropic",
			kind:     FetchKindUsage,
			outcome:  OutcomeError,
			duration: 2 * time.Second,
		},
		{
			name:     "rate limited fetch has no duration",
			provider: "openai",
			kind:     FetchKindUsage,
			outcome:  OutcomeRateLimited,
			duration: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordFetch(tt.provider, tt.kind, tt.outcome, tt.duration)

			// Verify fetch counter was incremented
			count := testutil.ToFloat64(collector.providerMetrics.fetchesTotal.WithLabelValues(tt.provider, tt.kind, tt.outcome))
			if count < 1 {
				t.Errorf("Expected fetch counter >= 1, got %f", count)
			}
		})
	}
}

// TestCollector_ProviderMetrics tests provider state recording
func TestCollector_ProviderMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// Test connectivity update
	t.Run("update connected", func(t *testing.T) {
		collector.UpdateProviderConnected("openai", true)
		connected := testutil.ToFloat64(collector.providerMetrics.connected.WithLabelValues("openai"))
		if connected != 1.0 {
			t.Errorf("Expected connected=1.0, got %f", connected)
		}

		collector.UpdateProviderConnected("openai", false)
		connected = testutil.ToFloat64(collector.providerMetrics.connected.WithLabelValues("openai"))
		if connected != 0.0 {
			t.Errorf("Expected connected=0.0, got %f", connected)
		}
	})

	// Test configured count
	t.Run("set configured", func(t *testing.T) {
		collector.SetProvidersConfigured(3)
		configured := testutil.ToFloat64(collector.providerMetrics.configured)
		if configured != 3 {
			t.Errorf("Expected configured=3, got %f", configured)
		}
	})
}

// TestCollector_CacheMetrics tests cache metric recording
func TestCollector_CacheMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// Test hit recording
	t.Run("record cache hit", func(t *testing.T) {
		collector.RecordCacheHit("usage")
		count := testutil.ToFloat64(collector.cacheMetrics.hitsTotal.WithLabelValues("usage"))
		if count < 1 {
			t.Errorf("Expected hit count >= 1, got %f", count)
		}
	})

	// Test miss recording
	t.Run("record cache miss", func(t *testing.T) {
		collector.RecordCacheMiss("usage")
		count := testutil.ToFloat64(collector.cacheMetrics.missesTotal.WithLabelValues("usage"))
		if count < 1 {
			t.Errorf("Expected miss count >= 1, got %f", count)
		}
	})

	// Test entry gauge
	t.Run("update cache entries", func(t *testing.T) {
		collector.UpdateCacheEntries(42)
		entries := testutil.ToFloat64(collector.cacheMetrics.entries)
		if entries != 42 {
			t.Errorf("Expected entries=42, got %f", entries)
		}
	})
}

// TestCollector_SyncMetrics tests sync metric recording
func TestCollector_SyncMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// Test run recording
	t.Run("record run outcomes", func(t *testing.T) {
		collector.RecordSyncRun("account", true)
		collector.RecordSyncRun("usage", false)

		successes := testutil.ToFloat64(collector.syncMetrics.runsTotal.WithLabelValues("account", SyncOutcomeSuccess))
		if successes < 1 {
			t.Errorf("Expected success count >= 1, got %f", successes)
		}
		failures := testutil.ToFloat64(collector.syncMetrics.runsTotal.WithLabelValues("usage", SyncOutcomeFailure))
		if failures < 1 {
			t.Errorf("Expected failure count >= 1, got %f", failures)
		}
	})

	// Test retry recording
	t.Run("record retry", func(t *testing.T) {
		collector.RecordSyncRetry("usage")
		count := testutil.ToFloat64(collector.syncMetrics.retriesTotal.WithLabelValues("usage"))
		if count < 1 {
			t.Errorf("Expected retry count >= 1, got %f", count)
		}
	})

	// Test last run timestamp
	t.Run("set last run", func(t *testing.T) {
		ts := time.Unix(1700000000, 0)
		collector.SetLastSyncTime("account", ts)
		value := testutil.ToFloat64(collector.syncMetrics.lastRun.WithLabelValues("account"))
		if value != float64(ts.Unix()) {
			t.Errorf("Expected last run %d, got %f", ts.Unix(), value)
		}
	})

	// Test running gauge
	t.Run("set running", func(t *testing.T) {
		collector.SetSyncRunning(true)
		if running := testutil.ToFloat64(collector.syncMetrics.running); running != 1.0 {
			t.Errorf("Expected running=1.0, got %f", running)
		}

		collector.SetSyncRunning(false)
		if running := testutil.ToFloat64(collector.syncMetrics.running); running != 0.0 {
			t.Errorf("Expected running=0.0, got %f", running)
		}
	})
}

// TestCollector_SpendMetrics tests spend metric recording
func TestCollector_SpendMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// Test usage totals
	t.Run("update usage", func(t *testing.T) {
		collector.UpdateUsage("openai", 30, 142.50, 9100, 48000000)

		cost := testutil.ToFloat64(collector.spendMetrics.usageCost.WithLabelValues("openai", "30"))
		if cost != 142.50 {
			t.Errorf("Expected cost=142.50, got %f", cost)
		}
		requests := testutil.ToFloat64(collector.spendMetrics.usageRequests.WithLabelValues("openai", "30"))
		if requests != 9100 {
			t.Errorf("Expected requests=9100, got %f", requests)
		}
		tokens := testutil.ToFloat64(collector.spendMetrics.usageTokens.WithLabelValues("openai", "30"))
		if tokens != 48000000 {
			t.Errorf("Expected tokens=48000000, got %f", tokens)
		}
	})

	// Test per-model spend
	t.Run("update model cost", func(t *testing.T) {
		collector.UpdateModelCost("openai", "gpt-4o", 7, 12.25)
		cost := testutil.ToFloat64(collector.spendMetrics.modelCost.WithLabelValues("openai", "gpt-4o", "7"))
		if cost != 12.25 {
			t.Errorf("Expected model cost=12.25, got %f", cost)
		}
	})

	// Test account balance
	t.Run("update balance", func(t *testing.T) {
		collector.UpdateAccountBalance("openai", 57.80)
		balance := testutil.ToFloat64(collector.spendMetrics.accountBalance.WithLabelValues("openai"))
		if balance != 57.80 {
			t.Errorf("Expected balance=57.80, got %f", balance)
		}
	})

	// Test budget evaluation
	t.Run("update budget", func(t *testing.T) {
		collector.UpdateBudget("anthropic", "warning", 500, 420, 0.84)

		limit := testutil.ToFloat64(collector.spendMetrics.budgetLimit.WithLabelValues("anthropic"))
		if limit != 500 {
			t.Errorf("Expected limit=500, got %f", limit)
		}
		used := testutil.ToFloat64(collector.spendMetrics.budgetUsed.WithLabelValues("anthropic"))
		if used != 420 {
			t.Errorf("Expected used=420, got %f", used)
		}
		ratio := testutil.ToFloat64(collector.spendMetrics.budgetRatio.WithLabelValues("anthropic"))
		if ratio != 0.84 {
			t.Errorf("Expected ratio=0.84, got %f", ratio)
		}
		state := testutil.ToFloat64(collector.spendMetrics.budgetState.WithLabelValues("anthropic"))
		if state != 1 {
			t.Errorf("Expected state=1 (warning), got %f", state)
		}
	})
}

// TestBudgetStateValue tests the budget state gauge encoding
func TestBudgetStateValue(t *testing.T) {
	tests := []struct {
		state string
		want  float64
	}{
		{"ok", 0},
		{"warning", 1},
		{"exceeded", 2},
		{"bogus", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := budgetStateValue(tt.state); got != tt.want {
			t.Errorf("budgetStateValue(%q) = %f, want %f", tt.state, got, tt.want)
		}
	}
}

// TestCollector_ModelCardinalityCap tests that new model series stop once the cap is hit
func TestCollector_ModelCardinalityCap(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.UpdateModelCost("openai", "gpt-4o", 30, 10.0)
	collector.UpdateModelCost("openai", "ft:gpt-4o-mini:acme::8a7b", 30, 1.0)

	if got := testutil.CollectAndCount(collector.spendMetrics.modelCost); got != 1 {
		t.Errorf("Expected 1 model series after cap, got %d", got)
	}

	// The established series keeps updating
	collector.UpdateModelCost("openai", "gpt-4o", 30, 11.0)
	cost := testutil.ToFloat64(collector.spendMetrics.modelCost.WithLabelValues("openai", "gpt-4o", "30"))
	if cost != 11.0 {
		t.Errorf("Expected established series to update to 11.0, got %f", cost)
	}
}

// TestCollector_Disabled tests that metrics are not recorded when disabled
func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// These should not panic
	collector.RecordFetch("openai", FetchKindAccount, OutcomeSuccess, time.Second)
	collector.UpdateProviderConnected("openai", true)
	collector.RecordCacheHit("usage")
	collector.RecordSyncRun("account", true)
	collector.UpdateUsage("openai", 30, 142.50, 9100, 48000000)
	collector.UpdateBudget("openai", "ok", 500, 100, 0.2)

	// And nothing should be recorded
	count := testutil.ToFloat64(collector.providerMetrics.fetchesTotal.WithLabelValues("openai", FetchKindAccount, OutcomeSuccess))
	if count != 0 {
		t.Errorf("Expected no fetches recorded while disabled, got %f", count)
	}
}

// TestCollector_NilCollector tests that a nil collector is a safe no-op sink
func TestCollector_NilCollector(t *testing.T) {
	var collector *Collector

	// None of these should panic
	collector.RecordFetch("openai", FetchKindUsage, OutcomeSuccess, time.Second)
	collector.UpdateProviderConnected("openai", true)
	collector.SetProvidersConfigured(2)
	collector.RecordCacheHit("usage")
	collector.RecordCacheMiss("usage")
	collector.UpdateCacheEntries(10)
	collector.RecordSyncRun("usage", false)
	collector.RecordSyncRetry("usage")
	collector.SetLastSyncTime("usage", time.Now())
	collector.SetSyncRunning(true)
	collector.UpdateUsage("openai", 30, 1.0, 1, 1)
	collector.UpdateModelCost("openai", "gpt-4o", 30, 1.0)
	collector.UpdateAccountBalance("openai", 1.0)
	collector.UpdateBudget("openai", "ok", 1, 1, 1)
}

// TestCardinalityLimiter tests cardinality limiting
func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	// First 3 should be allowed
	if !limiter.Allow("label1") {
		t.Error("Expected first label to be allowed")
	}
	if !limiter.Allow("label2") {
		t.Error("Expected second label to be allowed")
	}
	if !limiter.Allow("label3") {
		t.Error("Expected third label to be allowed")
	}

	// Fourth should be rejected
	if limiter.Allow("label4") {
		t.Error("Expected fourth label to be rejected")
	}

	// Existing labels should still be allowed
	if !limiter.Allow("label1") {
		t.Error("Expected existing label to be allowed")
	}

	// Check count
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

// TestCollector_Handler tests the exposition endpoint
func TestCollector_Handler(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	collector.RecordFetch("openai", FetchKindUsage, OutcomeSuccess, 200*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "test_metrics_provider_fetches_total") {
		t.Error("Expected exposition to contain the fetch counter")
	}
}

// TestCollector_ConcurrentRecording tests thread-safety
func TestCollector_ConcurrentRecording(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	done := make(chan bool)

	// Spawn multiple goroutines recording metrics
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				collector.RecordFetch("openai", FetchKindUsage, OutcomeSuccess, time.Second)
				collector.UpdateProviderConnected("openai", true)
				collector.RecordCacheHit("usage")
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	// Verify we got all fetches recorded
	count := testutil.ToFloat64(collector.providerMetrics.fetchesTotal.WithLabelValues("openai", FetchKindUsage, OutcomeSuccess))
	if count != 1000 {
		t.Errorf("Expected 1000 fetches, got %f", count)
	}
}
