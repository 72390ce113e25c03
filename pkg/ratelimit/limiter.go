package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter provides per-provider sliding-window admission control.
//
// Each provider gets its own window, created lazily on first use with that
// provider's policy (or the default policy for unknown providers). Admission
// is advisory: CanMakeRequest answers the question, RecordRequest appends
// the outcome, and callers are expected to honor the answer.
//
// Provider names are case-insensitive; they are normalized to lowercase.
type RateLimiter struct {
	mu sync.RWMutex

	// windows holds the per-provider state, keyed by normalized name
	windows map[string]*window

	// policies holds the configured per-provider limits
	policies map[string]Policy

	// defaultPolicy applies to providers without a configured policy
	defaultPolicy Policy
}

// NewRateLimiter creates a rate limiter with the given default policy and
// per-provider overrides. A zero defaultPolicy falls back to DefaultPolicy
// (60 requests per minute).
//
// Example:
//
//	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultPolicy, map[string]ratelimit.Policy{
//	    "openai":    {MaxRequests: 60, Window: time.Minute},
//	    "anthropic": {MaxRequests: 50, Window: time.Minute},
//	})
func NewRateLimiter(defaultPolicy Policy, policies map[string]Policy) *RateLimiter {
	normalized := make(map[string]Policy, len(policies))
	for provider, policy := range policies {
		normalized[strings.ToLower(provider)] = policy.normalize()
	}

	return &RateLimiter{
		windows:       make(map[string]*window),
		policies:      normalized,
		defaultPolicy: defaultPolicy.normalize(),
	}
}

// policyFor returns the policy for a normalized provider name.
func (rl *RateLimiter) policyFor(provider string) Policy {
	if policy, ok := rl.policies[provider]; ok {
		return policy
	}
	return rl.defaultPolicy
}

// getWindow returns the provider's window, creating it on first use.
// Double-checked under the write lock so concurrent first calls for the
// same provider share one window.
func (rl *RateLimiter) getWindow(provider string) *window {
	rl.mu.RLock()
	w, ok := rl.windows[provider]
	rl.mu.RUnlock()
	if ok {
		return w
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if w, ok := rl.windows[provider]; ok {
		return w
	}

	w = newWindow(rl.policyFor(provider))
	rl.windows[provider] = w
	return w
}

// CanMakeRequest reports whether the provider's window admits another
// request right now. Expired entries are purged first.
func (rl *RateLimiter) CanMakeRequest(provider string) bool {
	provider = strings.ToLower(provider)
	return rl.getWindow(provider).canMakeRequest(time.Now())
}

// RecordRequest records a request outcome against the provider's window.
// Failed requests additionally increment the provider's failure counter.
func (rl *RateLimiter) RecordRequest(provider string, success bool) {
	provider = strings.ToLower(provider)
	rl.getWindow(provider).record(time.Now(), success)
}

// GetStatus returns the provider's current window status.
func (rl *RateLimiter) GetStatus(provider string) Status {
	provider = strings.ToLower(provider)
	return rl.getWindow(provider).status(time.Now(), provider)
}

// GetAllStatus returns the status of every provider that has a window or a
// configured policy. Policy-configured providers that have never been used
// report a full window.
func (rl *RateLimiter) GetAllStatus() map[string]Status {
	rl.mu.RLock()
	names := make(map[string]struct{}, len(rl.windows)+len(rl.policies))
	for provider := range rl.windows {
		names[provider] = struct{}{}
	}
	for provider := range rl.policies {
		names[provider] = struct{}{}
	}
	rl.mu.RUnlock()

	statuses := make(map[string]Status, len(names))
	for provider := range names {
		statuses[provider] = rl.GetStatus(provider)
	}
	return statuses
}

// Reset clears the provider's window and failure count.
func (rl *RateLimiter) Reset(provider string) {
	provider = strings.ToLower(provider)

	rl.mu.RLock()
	w, ok := rl.windows[provider]
	rl.mu.RUnlock()

	if ok {
		w.reset()
	}
}

// ResetAll clears every provider's window and failure count.
func (rl *RateLimiter) ResetAll() {
	rl.mu.RLock()
	windows := make([]*window, 0, len(rl.windows))
	for _, w := range rl.windows {
		windows = append(windows, w)
	}
	rl.mu.RUnlock()

	for _, w := range windows {
		w.reset()
	}
}
