package history

import (
	"fmt"
	"time"
)

// Record is a point-in-time snapshot of one provider's usage totals.
// The monitor appends one record per provider after each successful
// usage sync, building a local spend timeline that outlives the cache.
type Record struct {
	// ID uniquely identifies the record. Assigned at append time.
	ID string `json:"id"`

	// Provider is the provider the totals belong to
	Provider string `json:"provider"`

	// RecordedAt is when the snapshot was captured
	RecordedAt time.Time `json:"recorded_at"`

	// WindowDays is the lookback window the totals cover
	WindowDays int `json:"window_days"`

	// TotalCost is the spend over the window, in the account currency
	TotalCost float64 `json:"total_cost"`

	// TotalRequests is the number of API requests over the window
	TotalRequests int64 `json:"total_requests"`

	// TotalTokens is the combined input and output token count
	TotalTokens int64 `json:"total_tokens"`
}

// Query filters history records. Zero-value fields are ignored.
type Query struct {
	// Provider restricts results to a single provider (exact match).
	Provider string

	// Start excludes records captured before this time.
	Start *time.Time

	// End excludes records captured after this time.
	End *time.Time

	// Limit caps the number of results. 0 means unlimited.
	Limit int

	// Offset skips this many results, for pagination.
	Offset int
}

// matchesQuery checks whether a record passes the query filters.
// Time bounds are inclusive on both ends.
func matchesQuery(record *Record, query *Query) bool {
	if query == nil {
		return true
	}

	if query.Provider != "" && record.Provider != query.Provider {
		return false
	}
	if query.Start != nil && record.RecordedAt.Before(*query.Start) {
		return false
	}
	if query.End != nil && record.RecordedAt.After(*query.End) {
		return false
	}

	return true
}

// StorageError represents an error from a history storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("append", "query", "delete", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
