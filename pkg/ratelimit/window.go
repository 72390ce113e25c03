package ratelimit

import (
	"sync"
	"time"
)

// entry is a single recorded request.
type entry struct {
	at      time.Time
	success bool
}

// window tracks one provider's recent requests under a sliding-window policy.
//
// # Algorithm
//
//  1. Purge entries older than the window duration
//  2. Admission: remaining entry count < MaxRequests
//  3. Recording appends a timestamped entry
//
// Entries carry exact timestamps, so a provider unblocks the moment its
// oldest request ages out; there is no bucket granularity and no reset
// spike.
//
// # Thread Safety
//
// Each window has its own mutex; operations on different providers never
// contend.
type window struct {
	mu sync.Mutex

	policy Policy

	// entries is ordered oldest to newest
	entries []entry

	// startedAt is the timestamp of the oldest retained entry
	// (zero when the window is empty)
	startedAt time.Time

	// failures and total are cumulative since creation or the last reset;
	// they are never purged
	failures int
	total    int64
}

// newWindow creates a window for the given policy.
func newWindow(policy Policy) *window {
	return &window{
		policy: policy.normalize(),
	}
}

// purgeLocked drops entries that have aged out of the window.
// Caller must hold the lock.
func (w *window) purgeLocked(now time.Time) {
	cutoff := now.Add(-w.policy.Window)

	i := 0
	for i < len(w.entries) && !w.entries[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}

	if len(w.entries) > 0 {
		w.startedAt = w.entries[0].at
	} else {
		w.startedAt = time.Time{}
	}
}

// canMakeRequest reports whether the window admits another request.
func (w *window) canMakeRequest(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.purgeLocked(now)
	return len(w.entries) < w.policy.MaxRequests
}

// record appends a request outcome. Recording is unconditional: the window
// grows past MaxRequests if callers ignore admission, since enforcement is
// the caller honoring canMakeRequest.
func (w *window) record(now time.Time, success bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.purgeLocked(now)

	w.entries = append(w.entries, entry{at: now, success: success})
	if w.startedAt.IsZero() {
		w.startedAt = now
	}

	w.total++
	if !success {
		w.failures++
	}
}

// status returns the current window view for the given provider name.
func (w *window) status(now time.Time, provider string) Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.purgeLocked(now)

	remaining := w.policy.MaxRequests - len(w.entries)
	if remaining < 0 {
		remaining = 0
	}

	var resetIn time.Duration
	if len(w.entries) > 0 {
		resetIn = w.entries[0].at.Add(w.policy.Window).Sub(now)
		if resetIn < 0 {
			resetIn = 0
		}
	}

	return Status{
		Provider:      provider,
		Remaining:     remaining,
		ResetIn:       resetIn,
		Limit:         w.policy.MaxRequests,
		Window:        w.policy.Window,
		FailureCount:  w.failures,
		TotalRequests: w.total,
	}
}

// reset clears the window and its cumulative counters.
func (w *window) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = nil
	w.startedAt = time.Time{}
	w.failures = 0
	w.total = 0
}
