//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	testproviders "mercator-hq/ganymede/internal/providers"
	"mercator-hq/ganymede/pkg/cache"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/costs"
	"mercator-hq/ganymede/pkg/monitoring"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/providers/anthropic"
	"mercator-hq/ganymede/pkg/providers/openai"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/server"
	"mercator-hq/ganymede/pkg/syncer"
)

// buildMonitor wires the given adapters into a monitor with a fresh
// cache and a limiter generous enough to never throttle the test.
func buildMonitor(t *testing.T, providerList []providers.Provider) (*monitoring.Monitor, *cache.Cache) {
	t.Helper()

	store, err := cache.New(cache.Config{})
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	t.Cleanup(store.Close)

	monitor, err := monitoring.NewMonitor(monitoring.Config{
		Providers:   providerList,
		RateLimiter: ratelimit.NewRateLimiter(ratelimit.Policy{MaxRequests: 1000, Window: time.Minute}, nil),
		Cache:       store,
		Calculator:  costs.NewCalculator(nil),
	})
	if err != nil {
		t.Fatalf("monitoring.NewMonitor() error = %v", err)
	}
	return monitor, store
}

// newStatusServer mounts the full HTTP surface over httptest.
func newStatusServer(t *testing.T, monitor server.Monitor, engine server.SyncEngine) *httptest.Server {
	t.Helper()

	cfg := server.Config{
		Server:  config.ServerConfig{ListenAddress: "127.0.0.1:0"},
		Monitor: monitor,
		Version: "integration-test",
	}
	if engine != nil {
		cfg.Engine = engine
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("server.NewServer() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getSummary(t *testing.T, baseURL string, days int) *monitoring.UsageSummary {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/v1/summary?days=%d", baseURL, days))
	if err != nil {
		t.Fatalf("GET /v1/summary failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/summary status = %d, want 200", resp.StatusCode)
	}

	var summary monitoring.UsageSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	return &summary
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// TestMonitorEndToEnd drives the whole read path over HTTP: mock
// billing upstreams, real adapters, monitor, and status server.
func TestMonitorEndToEnd(t *testing.T) {
	openaiUpstream := testproviders.NewOpenAIUpstream(t)
	anthropicUpstream := testproviders.NewAnthropicUpstream(t)

	openaiProvider, err := openai.NewProvider(testproviders.Config("openai", "openai", openaiUpstream.URL))
	if err != nil {
		t.Fatalf("openai.NewProvider() error = %v", err)
	}
	anthropicProvider, err := anthropic.NewProvider(testproviders.Config("anthropic", "anthropic", anthropicUpstream.URL))
	if err != nil {
		t.Fatalf("anthropic.NewProvider() error = %v", err)
	}

	monitor, store := buildMonitor(t, []providers.Provider{openaiProvider, anthropicProvider})
	ts := newStatusServer(t, monitor, nil)

	// Readiness needs at least one cached account snapshot, and
	// nothing has been fetched yet.
	resp, err := http.Get(ts.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("GET /ready before first fetch status = %d, want 503", resp.StatusCode)
	}

	summary := getSummary(t, ts.URL, 7)

	if summary.ProviderCount != 2 {
		t.Errorf("ProviderCount = %d, want 2", summary.ProviderCount)
	}
	if summary.ConnectedProviders != 2 {
		t.Errorf("ConnectedProviders = %d, want 2", summary.ConnectedProviders)
	}
	wantCost := testproviders.OpenAICost + testproviders.AnthropicCost
	if !closeTo(summary.TotalCost, wantCost) {
		t.Errorf("TotalCost = %v, want %v", summary.TotalCost, wantCost)
	}
	if want := int64(testproviders.OpenAIRequests + testproviders.AnthropicRequests); summary.TotalRequests != want {
		t.Errorf("TotalRequests = %d, want %d", summary.TotalRequests, want)
	}
	if want := int64(testproviders.OpenAITokens + testproviders.AnthropicTokens); summary.TotalTokens != want {
		t.Errorf("TotalTokens = %d, want %d", summary.TotalTokens, want)
	}

	entry := summary.Providers["openai"]
	if entry == nil {
		t.Fatal("summary missing openai entry")
	}
	if !entry.IsConnected {
		t.Error("openai should report connected")
	}
	if !closeTo(entry.TotalCost, testproviders.OpenAICost) {
		t.Errorf("openai TotalCost = %v, want %v", entry.TotalCost, testproviders.OpenAICost)
	}
	if len(entry.ModelUsage) != 1 || entry.ModelUsage[0].Model != "gpt-4o" {
		t.Errorf("openai ModelUsage = %+v, want single gpt-4o row", entry.ModelUsage)
	}

	// With account snapshots cached the readiness probe flips.
	store.Wait()
	resp, err = http.Get(ts.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready after fetch status = %d, want 200", resp.StatusCode)
	}

	// A second read of the same window is served from the cache.
	before := openaiUpstream.TotalHits() + anthropicUpstream.TotalHits()
	getSummary(t, ts.URL, 7)
	after := openaiUpstream.TotalHits() + anthropicUpstream.TotalHits()
	if after != before {
		t.Errorf("cached summary still hit upstream: %d new requests", after-before)
	}

	// A manual refresh drops the cache and goes back upstream.
	beforeRefresh := openaiUpstream.TotalHits()
	refreshResp, err := http.Post(ts.URL+"/v1/sync/refresh?provider=openai", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /v1/sync/refresh failed: %v", err)
	}
	refreshResp.Body.Close()
	if refreshResp.StatusCode != http.StatusAccepted {
		t.Errorf("refresh status = %d, want 202", refreshResp.StatusCode)
	}
	testproviders.WaitForCondition(t, 5*time.Second, func() bool {
		return openaiUpstream.TotalHits() > beforeRefresh
	}, "refresh never reached the upstream")
}

// TestMonitorPartialFailure verifies that one failing provider does
// not poison the aggregate view.
func TestMonitorPartialFailure(t *testing.T) {
	anthropicUpstream := testproviders.NewAnthropicUpstream(t)
	failingUpstream := testproviders.NewFailingUpstream(t, http.StatusInternalServerError)

	anthropicProvider, err := anthropic.NewProvider(testproviders.Config("anthropic", "anthropic", anthropicUpstream.URL))
	if err != nil {
		t.Fatalf("anthropic.NewProvider() error = %v", err)
	}
	openaiProvider, err := openai.NewProvider(testproviders.Config("openai", "openai", failingUpstream.URL))
	if err != nil {
		t.Fatalf("openai.NewProvider() error = %v", err)
	}

	monitor, _ := buildMonitor(t, []providers.Provider{openaiProvider, anthropicProvider})
	ts := newStatusServer(t, monitor, nil)

	summary := getSummary(t, ts.URL, 7)

	if summary.ProviderCount != 2 {
		t.Errorf("ProviderCount = %d, want 2", summary.ProviderCount)
	}
	if summary.ConnectedProviders != 1 {
		t.Errorf("ConnectedProviders = %d, want 1", summary.ConnectedProviders)
	}
	if !closeTo(summary.TotalCost, testproviders.AnthropicCost) {
		t.Errorf("TotalCost = %v, want %v", summary.TotalCost, testproviders.AnthropicCost)
	}
	if summary.Providers["anthropic"] == nil {
		t.Error("summary missing anthropic entry")
	}
	if _, ok := summary.Providers["openai"]; ok {
		t.Error("failing provider should contribute nothing")
	}
	if failingUpstream.TotalHits() == 0 {
		t.Error("failing upstream was never attempted")
	}
}

// TestSyncEngineEndToEnd runs the background engine against a live
// upstream and reads its status through the server.
func TestSyncEngineEndToEnd(t *testing.T) {
	upstream := testproviders.NewOpenAIUpstream(t)

	provider, err := openai.NewProvider(testproviders.Config("openai", "openai", upstream.URL))
	if err != nil {
		t.Fatalf("openai.NewProvider() error = %v", err)
	}

	monitor, _ := buildMonitor(t, []providers.Provider{provider})

	engine, err := syncer.NewEngine(syncer.Config{
		Sync: config.SyncConfig{
			AccountInterval: 200 * time.Millisecond,
			UsageInterval:   100 * time.Millisecond,
		},
		Monitor: func() syncer.Refresher { return monitor },
	})
	if err != nil {
		t.Fatalf("syncer.NewEngine() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		t.Fatalf("engine.Start() error = %v", err)
	}

	testproviders.WaitForCondition(t, 5*time.Second, func() bool {
		return engine.GetSyncStatus().SuccessfulSyncs >= 2
	}, "engine completed no syncs")

	ts := newStatusServer(t, monitor, engine)

	resp, err := http.Get(ts.URL + "/v1/sync/status")
	if err != nil {
		t.Fatalf("GET /v1/sync/status failed: %v", err)
	}
	defer resp.Body.Close()

	var status struct {
		Enabled bool `json:"enabled"`
		syncer.Status
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decoding sync status: %v", err)
	}
	if !status.Enabled {
		t.Error("sync status should report enabled")
	}
	if !status.Running {
		t.Error("sync status should report running")
	}
	if status.SuccessfulSyncs < 2 {
		t.Errorf("SuccessfulSyncs = %d, want >= 2", status.SuccessfulSyncs)
	}
	if upstream.TotalHits() == 0 {
		t.Error("engine never reached the upstream")
	}

	if err := engine.Stop(); err != nil {
		t.Fatalf("engine.Stop() error = %v", err)
	}
	if engine.IsRunning() {
		t.Error("engine still running after Stop")
	}
}
