package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/monitoring"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/syncer"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// fakeMonitor is a scriptable Monitor for server tests.
type fakeMonitor struct {
	mu sync.Mutex

	accounts     []*providers.AccountInfo
	usage        []*providers.UsageInfo
	summary      *monitoring.UsageSummary
	configured   []string
	unconfigured []string
	limits       map[string]ratelimit.Status
	names        []string
	connected    int

	usageDays       []int
	summaryDays     []int
	refreshed       []string
	refreshAllCalls int
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{
		names:     []string{"openai", "anthropic"},
		connected: 2,
	}
}

func (f *fakeMonitor) GetAllAccountInfo(ctx context.Context) []*providers.AccountInfo {
	return f.accounts
}

func (f *fakeMonitor) GetAllUsageInfo(ctx context.Context, days int) []*providers.UsageInfo {
	f.mu.Lock()
	f.usageDays = append(f.usageDays, days)
	f.mu.Unlock()
	return f.usage
}

func (f *fakeMonitor) GetUsageSummary(ctx context.Context, days int) *monitoring.UsageSummary {
	f.mu.Lock()
	f.summaryDays = append(f.summaryDays, days)
	f.mu.Unlock()
	if f.summary != nil {
		return f.summary
	}
	return &monitoring.UsageSummary{WindowDays: days}
}

func (f *fakeMonitor) GetConfiguredProviders(ctx context.Context) []string {
	return f.configured
}

func (f *fakeMonitor) GetUnconfiguredProviders(ctx context.Context) []string {
	return f.unconfigured
}

func (f *fakeMonitor) GetRateLimitStatus() map[string]ratelimit.Status {
	return f.limits
}

func (f *fakeMonitor) ProviderNames() []string {
	return f.names
}

func (f *fakeMonitor) ConnectedProviders() int {
	return f.connected
}

func (f *fakeMonitor) RefreshProviderDataAsync(name string) {
	f.mu.Lock()
	f.refreshed = append(f.refreshed, name)
	f.mu.Unlock()
}

func (f *fakeMonitor) RefreshAllProviderDataAsync() {
	f.mu.Lock()
	f.refreshAllCalls++
	f.mu.Unlock()
}

// fakeEngine is a scriptable SyncEngine for server tests.
type fakeEngine struct {
	status  syncer.Status
	running bool
}

func (f *fakeEngine) GetSyncStatus() syncer.Status { return f.status }
func (f *fakeEngine) IsRunning() bool              { return f.running }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Monitor == nil {
		cfg.Monitor = newFakeMonitor()
	}
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func doRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresMonitor(t *testing.T) {
	_, err := NewServer(Config{})
	if err == nil {
		t.Fatal("NewServer() with nil monitor should return an error")
	}
}

func TestNewServer_Defaults(t *testing.T) {
	srv := newTestServer(t, Config{})

	if srv.config.ListenAddress != config.DefaultListenAddress {
		t.Errorf("ListenAddress = %v, want %v", srv.config.ListenAddress, config.DefaultListenAddress)
	}
	if srv.config.ReadTimeout != config.DefaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want %v", srv.config.ReadTimeout, config.DefaultReadTimeout)
	}
	if srv.config.WriteTimeout != config.DefaultWriteTimeout {
		t.Errorf("WriteTimeout = %v, want %v", srv.config.WriteTimeout, config.DefaultWriteTimeout)
	}
	if srv.config.IdleTimeout != config.DefaultIdleTimeout {
		t.Errorf("IdleTimeout = %v, want %v", srv.config.IdleTimeout, config.DefaultIdleTimeout)
	}
	if srv.config.ShutdownTimeout != config.DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", srv.config.ShutdownTimeout, config.DefaultShutdownTimeout)
	}
	if srv.config.MaxHeaderBytes != config.DefaultMaxHeaderBytes {
		t.Errorf("MaxHeaderBytes = %v, want %v", srv.config.MaxHeaderBytes, config.DefaultMaxHeaderBytes)
	}
}

func TestNewServer_KeepsConfiguredValues(t *testing.T) {
	srv := newTestServer(t, Config{
		Server: config.ServerConfig{
			ListenAddress: "127.0.0.1:9999",
			ReadTimeout:   1 * time.Second,
		},
	})

	if srv.config.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("ListenAddress = %v, want 127.0.0.1:9999", srv.config.ListenAddress)
	}
	if srv.config.ReadTimeout != 1*time.Second {
		t.Errorf("ReadTimeout = %v, want 1s", srv.config.ReadTimeout)
	}
	// Unset fields still get defaults
	if srv.config.WriteTimeout != config.DefaultWriteTimeout {
		t.Errorf("WriteTimeout = %v, want %v", srv.config.WriteTimeout, config.DefaultWriteTimeout)
	}
}

func TestNewServer_RegistersHealthChecks(t *testing.T) {
	t.Run("providers check always registered", func(t *testing.T) {
		srv := newTestServer(t, Config{})

		if srv.Checker().GetCheck("providers") == nil {
			t.Error("providers readiness check should be registered")
		}
		if srv.Checker().GetCheck("sync") != nil {
			t.Error("sync check should not be registered without an engine")
		}
	})

	t.Run("sync check registered with engine", func(t *testing.T) {
		srv := newTestServer(t, Config{Engine: &fakeEngine{running: true}})

		if srv.Checker().GetCheck("sync") == nil {
			t.Error("sync readiness check should be registered")
		}
	})
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, Config{
		Engine:  &fakeEngine{running: true},
		Version: "0.1.0",
	})
	handler := srv.Handler()

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/v1/accounts", http.StatusOK},
		{http.MethodGet, "/v1/usage", http.StatusOK},
		{http.MethodGet, "/v1/summary", http.StatusOK},
		{http.MethodGet, "/v1/providers", http.StatusOK},
		{http.MethodGet, "/v1/limits", http.StatusOK},
		{http.MethodGet, "/v1/sync/status", http.StatusOK},
		{http.MethodPost, "/v1/sync/refresh", http.StatusAccepted},
		{http.MethodGet, "/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doRequest(t, handler, tt.method, tt.path)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_CustomProbePaths(t *testing.T) {
	srv := newTestServer(t, Config{
		Health: config.HealthConfig{
			LivenessPath:  "/livez",
			ReadinessPath: "/readyz",
		},
	})
	handler := srv.Handler()

	if rec := doRequest(t, handler, http.MethodGet, "/livez"); rec.Code != http.StatusOK {
		t.Errorf("GET /livez status = %v, want %v", rec.Code, http.StatusOK)
	}
	if rec := doRequest(t, handler, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("GET /readyz status = %v, want %v", rec.Code, http.StatusOK)
	}
	if rec := doRequest(t, handler, http.MethodGet, "/health"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /health status = %v, want %v", rec.Code, http.StatusNotFound)
	}
}

func TestServer_MetricsRoute(t *testing.T) {
	t.Run("mounted with collector", func(t *testing.T) {
		collector := metrics.NewCollector(config.MetricsConfig{Enabled: true}, nil)
		srv := newTestServer(t, Config{Metrics: collector})

		rec := doRequest(t, srv.Handler(), http.MethodGet, collector.Path())
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %v, want %v", collector.Path(), rec.Code, http.StatusOK)
		}
	})

	t.Run("absent without collector", func(t *testing.T) {
		srv := newTestServer(t, Config{})

		rec := doRequest(t, srv.Handler(), http.MethodGet, "/metrics")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET /metrics status = %v, want %v", rec.Code, http.StatusNotFound)
		}
	})
}

func TestServer_ReadinessReflectsProviders(t *testing.T) {
	monitor := newFakeMonitor()
	monitor.connected = 0

	srv := newTestServer(t, Config{
		Monitor: monitor,
		Health:  config.HealthConfig{MinConnectedProviders: 1},
	})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %v, want %v", rec.Code, http.StatusServiceUnavailable)
	}

	monitor.connected = 1
	rec = doRequest(t, srv.Handler(), http.MethodGet, "/ready")
	if rec.Code != http.StatusOK {
		t.Errorf("status after reconnect = %v, want %v", rec.Code, http.StatusOK)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv := newTestServer(t, Config{
		Server: config.ServerConfig{ListenAddress: "127.0.0.1:0"},
	})

	if srv.IsRunning() {
		t.Error("server should not be running before Start")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(context.Background())
	}()

	waitForRunning(t, srv)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}

	if srv.IsRunning() {
		t.Error("server should not be running after Shutdown")
	}
}

func TestServer_StartTwice(t *testing.T) {
	srv := newTestServer(t, Config{
		Server: config.ServerConfig{ListenAddress: "127.0.0.1:0"},
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(context.Background())
	}()

	waitForRunning(t, srv)

	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should return an error")
	}

	srv.Shutdown(context.Background())
	<-errChan
}

func TestServer_ContextCancellation(t *testing.T) {
	srv := newTestServer(t, Config{
		Server: config.ServerConfig{ListenAddress: "127.0.0.1:0"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	waitForRunning(t, srv)
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

func waitForRunning(t *testing.T, srv *Server) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if srv.IsRunning() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start within deadline")
}
