package monitoring

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/ganymede/pkg/cache"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/costs"
	"mercator-hq/ganymede/pkg/history"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// fakeProvider is a scriptable Provider for monitor tests.
type fakeProvider struct {
	name       string
	configured bool

	account    *providers.AccountInfo
	accountErr error
	usage      *providers.UsageInfo
	usageErr   error

	mu           sync.Mutex
	accountCalls int
	usageCalls   int
	lastDays     int
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, configured: true}
}

func (f *fakeProvider) Name() string       { return f.name }
func (f *fakeProvider) IsConfigured() bool { return f.configured }
func (f *fakeProvider) Close() error       { return nil }

func (f *fakeProvider) GetAccountInfo(ctx context.Context) (*providers.AccountInfo, error) {
	f.mu.Lock()
	f.accountCalls++
	f.mu.Unlock()

	if f.accountErr != nil {
		return nil, f.accountErr
	}
	if f.account != nil {
		return f.account, nil
	}
	return &providers.AccountInfo{
		Provider:    f.name,
		IsConnected: true,
		PlanType:    "pay-as-you-go",
		CheckedAt:   time.Now(),
	}, nil
}

func (f *fakeProvider) GetUsageInfo(ctx context.Context, days int) (*providers.UsageInfo, error) {
	f.mu.Lock()
	f.usageCalls++
	f.lastDays = days
	f.mu.Unlock()

	if f.usageErr != nil {
		return nil, f.usageErr
	}
	if f.usage != nil {
		return f.usage, nil
	}
	now := time.Now()
	return &providers.UsageInfo{
		Provider:      f.name,
		StartDate:     now.AddDate(0, 0, -days),
		EndDate:       now,
		TotalCost:     1.0,
		TotalRequests: 10,
		TotalTokens:   1000,
	}, nil
}

func (f *fakeProvider) calls() (account, usage int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accountCalls, f.usageCalls
}

func (f *fakeProvider) usageDays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastDays
}

// newTestCache builds a cache with default settings for monitor tests.
func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := cache.New(cache.Config{})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

// newTestMonitor builds a monitor with a generous rate limit policy so
// admission never interferes unless a test wants it to.
func newTestMonitor(t *testing.T, provs ...providers.Provider) *Monitor {
	t.Helper()

	m, err := NewMonitor(Config{
		Providers:   provs,
		RateLimiter: ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1000, Window: time.Minute}, nil),
		Cache:       newTestCache(t),
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}
	return m
}

// ============================================================
// Account Aggregation Tests
// ============================================================

func TestMonitor_GetAllAccountInfo(t *testing.T) {
	alpha := newFakeProvider("alpha")
	beta := newFakeProvider("beta")
	m := newTestMonitor(t, alpha, beta)

	infos := m.GetAllAccountInfo(context.Background())
	if len(infos) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(infos))
	}

	seen := map[string]bool{}
	for _, info := range infos {
		seen[info.Provider] = true
	}
	if !seen["alpha"] || !seen["beta"] {
		t.Errorf("Expected snapshots for alpha and beta, got %v", seen)
	}
}

func TestMonitor_PartialFailureIsolation(t *testing.T) {
	good1 := newFakeProvider("good1")
	good2 := newFakeProvider("good2")
	bad := newFakeProvider("bad")
	bad.accountErr = errors.New("upstream exploded")
	bad.usageErr = errors.New("upstream exploded")
	good3 := newFakeProvider("good3")

	m := newTestMonitor(t, good1, good2, bad, good3)
	ctx := context.Background()

	infos := m.GetAllAccountInfo(ctx)
	if len(infos) != 3 {
		t.Fatalf("Expected exactly 3 account snapshots, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Provider == "bad" {
			t.Error("Failing provider must be omitted, not included as a placeholder")
		}
	}

	reports := m.GetAllUsageInfo(ctx, 30)
	if len(reports) != 3 {
		t.Fatalf("Expected exactly 3 usage reports, got %d", len(reports))
	}
}

func TestMonitor_AggregateCached(t *testing.T) {
	alpha := newFakeProvider("alpha")
	m := newTestMonitor(t, alpha)
	ctx := context.Background()

	m.GetAllAccountInfo(ctx)
	m.cache.Wait()
	m.GetAllAccountInfo(ctx)

	if calls, _ := alpha.calls(); calls != 1 {
		t.Errorf("Expected 1 upstream call with warm aggregate cache, got %d", calls)
	}
}

func TestMonitor_RateLimitedServesCachedSnapshot(t *testing.T) {
	alpha := newFakeProvider("alpha")
	limiter := ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1, Window: time.Minute}, nil)

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{alpha},
		RateLimiter: limiter,
		Cache:       newTestCache(t),
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}
	ctx := context.Background()

	// First call consumes the window and caches the individual snapshot
	if infos := m.GetAllAccountInfo(ctx); len(infos) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(infos))
	}
	m.cache.Wait()

	// Drop only the aggregate so the next call re-runs admission
	m.cache.Invalidate(accountsKey)

	infos := m.GetAllAccountInfo(ctx)
	if len(infos) != 1 {
		t.Fatalf("Expected 1 snapshot from the cached fallback, got %d", len(infos))
	}
	if calls, _ := alpha.calls(); calls != 1 {
		t.Errorf("Expected no second upstream call while rate limited, got %d", calls)
	}
}

func TestMonitor_RateLimitedWithoutCacheSkips(t *testing.T) {
	alpha := newFakeProvider("alpha")
	limiter := ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1, Window: time.Minute}, nil)

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{alpha},
		RateLimiter: limiter,
		Cache:       newTestCache(t),
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}

	// Exhaust the window before anything is cached
	limiter.RecordRequest("alpha", true)

	infos := m.GetAllAccountInfo(context.Background())
	if len(infos) != 0 {
		t.Errorf("Expected 0 snapshots for a blocked provider with no cache, got %d", len(infos))
	}
	if calls, _ := alpha.calls(); calls != 0 {
		t.Errorf("Expected no upstream call while blocked, got %d", calls)
	}
}

func TestMonitor_UnconfiguredSkipped(t *testing.T) {
	alpha := newFakeProvider("alpha")
	ghost := newFakeProvider("ghost")
	ghost.configured = false

	m := newTestMonitor(t, alpha, ghost)
	ctx := context.Background()

	infos := m.GetAllAccountInfo(ctx)
	if len(infos) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(infos))
	}
	if infos[0].Provider != "alpha" {
		t.Errorf("Expected alpha snapshot, got %q", infos[0].Provider)
	}
	if calls, _ := ghost.calls(); calls != 0 {
		t.Errorf("Expected no upstream call for unconfigured provider, got %d", calls)
	}
}

// ============================================================
// Usage Aggregation Tests
// ============================================================

func TestMonitor_GetAllUsageInfo(t *testing.T) {
	alpha := newFakeProvider("alpha")
	beta := newFakeProvider("beta")
	m := newTestMonitor(t, alpha, beta)

	reports := m.GetAllUsageInfo(context.Background(), 7)
	if len(reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(reports))
	}
	if alpha.usageDays() != 7 {
		t.Errorf("Expected lookback of 7 days, got %d", alpha.usageDays())
	}
}

func TestMonitor_GetAllUsageInfoDefaultDays(t *testing.T) {
	alpha := newFakeProvider("alpha")
	m := newTestMonitor(t, alpha)

	m.GetAllUsageInfo(context.Background(), 0)
	if alpha.usageDays() != 30 {
		t.Errorf("Expected default lookback of 30 days, got %d", alpha.usageDays())
	}
}

func TestMonitor_UsagePricing(t *testing.T) {
	alpha := newFakeProvider("openai")
	alpha.usage = &providers.UsageInfo{
		Provider:      "openai",
		TotalRequests: 10,
		TotalTokens:   2000,
		ModelUsage: []providers.ModelUsage{
			{Model: "gpt-4o", Requests: 10, InputTokens: 1000, OutputTokens: 1000},
		},
	}

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{alpha},
		RateLimiter: ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1000, Window: time.Minute}, nil),
		Cache:       newTestCache(t),
		Calculator:  costs.NewCalculator(nil),
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}

	reports := m.GetAllUsageInfo(context.Background(), 30)
	if len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(reports))
	}

	// gpt-4o default pricing: 1000 input at 0.0025/1K + 1000 output at 0.01/1K
	want := 0.0125
	got := reports[0].TotalCost
	if diff := got - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("Expected derived cost %v, got %v", want, got)
	}
}

func TestMonitor_BilledCostLeftAlone(t *testing.T) {
	alpha := newFakeProvider("openai")
	alpha.usage = &providers.UsageInfo{
		Provider:      "openai",
		TotalCost:     42.0,
		TotalRequests: 10,
		TotalTokens:   2000,
	}

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{alpha},
		RateLimiter: ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1000, Window: time.Minute}, nil),
		Cache:       newTestCache(t),
		Calculator:  costs.NewCalculator(nil),
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}

	reports := m.GetAllUsageInfo(context.Background(), 30)
	if reports[0].TotalCost != 42.0 {
		t.Errorf("Expected billed cost 42.0 untouched, got %v", reports[0].TotalCost)
	}
}

// ============================================================
// History Recording Tests
// ============================================================

func TestMonitor_HistoryRecording(t *testing.T) {
	alpha := newFakeProvider("alpha")
	beta := newFakeProvider("beta")
	store := history.NewMemoryStore()
	defer store.Close()

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{alpha, beta},
		RateLimiter: ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1000, Window: time.Minute}, nil),
		Cache:       newTestCache(t),
		History:     store,
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}

	ctx := context.Background()
	m.GetAllUsageInfo(ctx, 30)

	records, err := store.Query(ctx, &history.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 history records, got %d", len(records))
	}
	for _, record := range records {
		if record.ID == "" {
			t.Error("Expected a record ID, got empty string")
		}
		if record.WindowDays != 30 {
			t.Errorf("Expected window_days 30, got %d", record.WindowDays)
		}
		if record.TotalCost != 1.0 {
			t.Errorf("Expected total_cost 1.0, got %v", record.TotalCost)
		}
	}
}

func TestMonitor_FailedFetchNotRecorded(t *testing.T) {
	bad := newFakeProvider("bad")
	bad.usageErr = errors.New("upstream exploded")
	store := history.NewMemoryStore()
	defer store.Close()

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{bad},
		RateLimiter: ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1000, Window: time.Minute}, nil),
		Cache:       newTestCache(t),
		History:     store,
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}

	m.GetAllUsageInfo(context.Background(), 30)

	if store.Size() != 0 {
		t.Errorf("Expected no history records for failed fetches, got %d", store.Size())
	}
}

// ============================================================
// Provider List Tests
// ============================================================

func TestMonitor_ProviderLists(t *testing.T) {
	alpha := newFakeProvider("alpha")
	ghost := newFakeProvider("ghost")
	ghost.configured = false
	beta := newFakeProvider("beta")

	m := newTestMonitor(t, alpha, ghost, beta)
	ctx := context.Background()

	configured := m.GetConfiguredProviders(ctx)
	if len(configured) != 2 || configured[0] != "alpha" || configured[1] != "beta" {
		t.Errorf("Expected configured [alpha beta], got %v", configured)
	}

	unconfigured := m.GetUnconfiguredProviders(ctx)
	if len(unconfigured) != 1 || unconfigured[0] != "ghost" {
		t.Errorf("Expected unconfigured [ghost], got %v", unconfigured)
	}
}

// ============================================================
// Cache Key Layout Tests
// ============================================================

func TestMonitor_CacheKeyLayout(t *testing.T) {
	alpha := newFakeProvider("alpha")
	m := newTestMonitor(t, alpha)
	ctx := context.Background()

	m.GetUsageSummary(ctx, 30)
	m.GetConfiguredProviders(ctx)
	m.GetUnconfiguredProviders(ctx)
	m.cache.Wait()

	for _, key := range []string{
		"monitor:accounts",
		"monitor:account:alpha",
		"monitor:usage:30",
		"monitor:usage:alpha:30",
		"monitor:summary:30",
		"monitor:providers:configured",
		"monitor:providers:unconfigured",
	} {
		if !m.cache.Exists(key) {
			t.Errorf("Expected cache key %q to exist", key)
		}
	}
}

// ============================================================
// Concurrency Tests
// ============================================================

func TestMonitor_ConcurrentAccess(t *testing.T) {
	alpha := newFakeProvider("alpha")
	beta := newFakeProvider("beta")
	m := newTestMonitor(t, alpha, beta)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			switch n % 4 {
			case 0:
				m.GetAllAccountInfo(ctx)
			case 1:
				m.GetAllUsageInfo(ctx, 30)
			case 2:
				m.GetUsageSummary(ctx, 30)
			case 3:
				m.GetConfiguredProviders(ctx)
			}
		}(i)
	}
	wg.Wait()
}

// ============================================================
// Metrics Integration Tests
// ============================================================

func TestMonitor_RecordsFetchMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "monitor",
	}, registry)

	balance := 42.5
	alpha := newFakeProvider("alpha")
	alpha.account = &providers.AccountInfo{
		Provider:    "alpha",
		IsConnected: true,
		Balance:     &balance,
		Currency:    "USD",
		CheckedAt:   time.Now(),
	}
	beta := newFakeProvider("beta")

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{alpha, beta},
		RateLimiter: ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1000, Window: time.Minute}, nil),
		Cache:       newTestCache(t),
		Metrics:     collector,
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}

	ctx := context.Background()
	m.GetAllAccountInfo(ctx)
	m.GetAllAccountInfo(ctx) // served from cache
	m.GetAllUsageInfo(ctx, 30)

	// One success series per provider and kind
	fetches, err := testutil.GatherAndCount(registry, "test_monitor_provider_fetches_total")
	if err != nil {
		t.Fatalf("Failed to gather fetch metrics: %v", err)
	}
	if fetches != 4 {
		t.Errorf("Expected 4 fetch series (2 providers x 2 kinds), got %d", fetches)
	}

	// The repeated account read hit the aggregate cache
	hits, err := testutil.GatherAndCount(registry, "test_monitor_cache_hits_total")
	if err != nil {
		t.Fatalf("Failed to gather cache metrics: %v", err)
	}
	if hits != 1 {
		t.Errorf("Expected 1 cache hit series, got %d", hits)
	}

	// Usage fetches export spend per provider
	spend, err := testutil.GatherAndCount(registry, "test_monitor_usage_cost_usd")
	if err != nil {
		t.Fatalf("Failed to gather spend metrics: %v", err)
	}
	if spend != 2 {
		t.Errorf("Expected 2 spend series, got %d", spend)
	}

	// Only alpha reported a balance
	balances, err := testutil.GatherAndCount(registry, "test_monitor_account_balance_usd")
	if err != nil {
		t.Fatalf("Failed to gather balance metrics: %v", err)
	}
	if balances != 1 {
		t.Errorf("Expected 1 balance series, got %d", balances)
	}
}

func TestMonitor_RecordsRateLimitedFetches(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "monitor",
	}, registry)

	alpha := newFakeProvider("alpha")
	limiter := ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1, Window: time.Minute}, nil)

	m, err := NewMonitor(Config{
		Providers:   []providers.Provider{alpha},
		RateLimiter: limiter,
		Cache:       newTestCache(t),
		Metrics:     collector,
	})
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}

	ctx := context.Background()
	m.GetAllAccountInfo(ctx)

	// The single admission is spent; the refresh runs rate limited with
	// its fallback snapshot just invalidated
	if err := m.RefreshProviderData(ctx, "alpha"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	expected := `# HELP test_monitor_provider_fetches_total Total number of provider fetches by kind and outcome
# TYPE test_monitor_provider_fetches_total counter
test_monitor_provider_fetches_total{kind="account",outcome="rate_limited",provider="alpha"} 1
test_monitor_provider_fetches_total{kind="account",outcome="success",provider="alpha"} 1
test_monitor_provider_fetches_total{kind="usage",outcome="rate_limited",provider="alpha"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_monitor_provider_fetches_total"); err != nil {
		t.Errorf("Unexpected fetch metrics: %v", err)
	}
}
