// Package ratelimit provides per-provider sliding-window admission control.
//
// # Overview
//
// The monitor polls upstream billing APIs that carry their own strict rate
// limits. This package keeps the monitor well inside those limits: each
// provider gets a rolling window of recently recorded requests, and callers
// ask for admission before fetching.
//
// # Sliding Window
//
// The window holds exact request timestamps. A request is admitted while the
// window holds fewer than MaxRequests entries; an entry leaves the window
// the moment it is older than the window duration:
//
//	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultPolicy, map[string]ratelimit.Policy{
//	    "openai": {MaxRequests: 60, Window: time.Minute},
//	})
//
//	if limiter.CanMakeRequest("openai") {
//	    err := fetch()
//	    limiter.RecordRequest("openai", err == nil)
//	}
//
// Purging is lazy: there is no background goroutine, every operation prunes
// expired entries first.
//
// # Status
//
// GetStatus exposes the window for dashboards and the status API: remaining
// admissions, time until the next slot frees up, and cumulative failure
// counts used to derive per-provider success rates.
//
// # Thread Safety
//
// The limiter is safe for concurrent use. Each provider window has its own
// lock, so operations on different providers never contend.
package ratelimit
