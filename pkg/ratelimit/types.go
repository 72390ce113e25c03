package ratelimit

import "time"

// Policy defines the admission limit for one provider: at most MaxRequests
// calls within any rolling Window.
type Policy struct {
	// MaxRequests is the maximum number of requests inside the window
	MaxRequests int

	// Window is the rolling time window duration
	Window time.Duration
}

// DefaultPolicy is applied to providers without a configured policy.
// 60 requests per minute is conservative enough for every upstream
// billing API this monitor talks to.
var DefaultPolicy = Policy{
	MaxRequests: 60,
	Window:      time.Minute,
}

// normalize fills zero or negative fields from DefaultPolicy.
func (p Policy) normalize() Policy {
	if p.MaxRequests <= 0 {
		p.MaxRequests = DefaultPolicy.MaxRequests
	}
	if p.Window <= 0 {
		p.Window = DefaultPolicy.Window
	}
	return p
}

// Status is a point-in-time view of one provider's window.
type Status struct {
	// Provider is the provider this status describes
	Provider string `json:"provider"`

	// Remaining is how many more requests the window admits right now
	Remaining int `json:"remaining"`

	// ResetIn is the time until the oldest recorded request leaves the
	// window, freeing one slot. Zero when the window is empty.
	ResetIn time.Duration `json:"reset_in"`

	// Limit is the policy's MaxRequests
	Limit int `json:"limit"`

	// Window is the policy's rolling window duration
	Window time.Duration `json:"window"`

	// FailureCount is the cumulative number of failed requests recorded
	// since startup or the last Reset
	FailureCount int `json:"failure_count"`

	// TotalRequests is the cumulative number of recorded requests since
	// startup or the last Reset
	TotalRequests int64 `json:"total_requests"`
}

// SuccessRate returns the fraction of recorded requests that succeeded.
// A provider with no recorded requests counts as fully healthy.
func (s Status) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 1.0
	}
	return float64(s.TotalRequests-int64(s.FailureCount)) / float64(s.TotalRequests)
}
