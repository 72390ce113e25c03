// Package providers holds shared helpers for tests that need a live
// upstream: httptest servers speaking the provider billing APIs, and
// config builders pointing at them.
package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/providers/anthropic"
	"mercator-hq/ganymede/pkg/providers/openai"
)

// Canned figures served by the mock upstreams. Tests assert against
// these instead of repeating the numbers.
const (
	OpenAIRequests    = 120
	OpenAITokens      = 72000
	OpenAICost        = 12.5
	AnthropicRequests = 80
	AnthropicTokens   = 49000
	AnthropicCost     = 8.4
)

// Config returns a provider config pointing at a test upstream.
func Config(name, providerType, baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:       name,
		Type:       providerType,
		BaseURL:    baseURL,
		APIKey:     "sk-test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	}
}

// Upstream is a mock billing API server with per-path hit counters, so
// tests can tell cached reads from upstream fetches.
type Upstream struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// Hits returns how many requests the given path has served.
func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// TotalHits returns the request count across all paths.
func (u *Upstream) TotalHits() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	total := 0
	for _, n := range u.hits {
		total += n
	}
	return total
}

func (u *Upstream) handler(payload interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
}

// NewOpenAIUpstream serves the three endpoints the OpenAI adapter
// reads: the models probe, the completions usage report, and the costs
// report. Usage is one bucket of gpt-4o traffic; cost is a single line
// item of OpenAICost dollars.
func NewOpenAIUpstream(t *testing.T) *Upstream {
	t.Helper()

	u := &Upstream{hits: make(map[string]int)}
	now := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", u.handler(openai.ModelsResponse{
		Object: "list",
		Data: []openai.ModelEntry{
			{ID: "gpt-4o", Object: "model", OwnedBy: "system"},
			{ID: "gpt-4o-mini", Object: "model", OwnedBy: "system"},
		},
	}))
	mux.HandleFunc("/v1/organization/usage/completions", u.handler(openai.UsageResponse{
		Object: "page",
		Data: []openai.UsageBucket{{
			Object:    "bucket",
			StartTime: now.Add(-24 * time.Hour).Unix(),
			EndTime:   now.Unix(),
			Results: []openai.UsageResult{{
				Object:           "organization.usage.completions.result",
				Model:            "gpt-4o",
				NumModelRequests: OpenAIRequests,
				InputTokens:      54000,
				OutputTokens:     18000,
			}},
		}},
	}))
	mux.HandleFunc("/v1/organization/costs", u.handler(openai.CostsResponse{
		Object: "page",
		Data: []openai.CostBucket{{
			Object:    "bucket",
			StartTime: now.Add(-24 * time.Hour).Unix(),
			EndTime:   now.Unix(),
			Results: []openai.CostResult{{
				Object:   "organization.costs.result",
				Amount:   openai.CostAmount{Value: OpenAICost, Currency: "usd"},
				LineItem: "completions",
			}},
		}},
	}))

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

// NewAnthropicUpstream serves the models probe plus the Admin API usage
// and cost reports. Usage is one bucket of claude-sonnet-4 traffic;
// cost is a single row of AnthropicCost dollars.
func NewAnthropicUpstream(t *testing.T) *Upstream {
	t.Helper()

	u := &Upstream{hits: make(map[string]int)}
	now := time.Now().UTC()
	dayAgo := now.Add(-24 * time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", u.handler(anthropic.ModelsResponse{
		Data: []anthropic.ModelEntry{
			{ID: "claude-sonnet-4", Type: "model", DisplayName: "Claude Sonnet 4"},
		},
	}))
	mux.HandleFunc("/v1/organizations/usage_report/messages", u.handler(anthropic.UsageReport{
		Data: []anthropic.UsageTimeBucket{{
			StartingAt: dayAgo.Format(time.RFC3339),
			EndingAt:   now.Format(time.RFC3339),
			Results: []anthropic.UsageRow{{
				Model:                    "claude-sonnet-4",
				NumRequests:              AnthropicRequests,
				UncachedInputTokens:      30000,
				CacheCreationInputTokens: 2000,
				CacheReadInputTokens:     8000,
				OutputTokens:             9000,
			}},
		}},
	}))
	mux.HandleFunc("/v1/organizations/cost_report", u.handler(anthropic.CostReport{
		Data: []anthropic.CostTimeBucket{{
			StartingAt: dayAgo.Format(time.RFC3339),
			EndingAt:   now.Format(time.RFC3339),
			Results: []anthropic.CostRow{{
				Currency:    "USD",
				Amount:      "8.40",
				Description: "Claude usage",
			}},
		}},
	}))

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

// NewFailingUpstream answers every path with the given status and a
// JSON error body, for exercising failure isolation.
func NewFailingUpstream(t *testing.T, status int) *Upstream {
	t.Helper()

	u := &Upstream{hits: make(map[string]int)}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, `{"error": {"message": "upstream unavailable", "type": "server_error"}}`)
	}))
	t.Cleanup(u.Close)
	return u
}

// WaitForCondition polls until the condition is true or the timeout
// elapses.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}

		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}

		<-ticker.C
	}
}
