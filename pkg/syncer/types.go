package syncer

import (
	"context"
	"time"
)

// Refresher is the aggregator surface the engine drives. Both methods
// follow the invalidate-then-refetch contract: cached views are
// dropped first, then rebuilt from the providers while honoring the
// rate limiter. *monitoring.Monitor satisfies this interface.
type Refresher interface {
	// RefreshAccountData rebuilds the account views.
	RefreshAccountData(ctx context.Context) error

	// RefreshUsageData rebuilds the usage views for the given lookback
	// window (days <= 0 selects the aggregator's default window).
	RefreshUsageData(ctx context.Context, days int) error
}

// MonitorFunc resolves the Refresher for a single sync. The engine
// calls it at the start of every sync instead of holding a reference
// across cycles, so a replaced monitor is picked up without a restart.
type MonitorFunc func() Refresher

// Status is a point-in-time view of the engine's schedule and
// lifetime counters. It is derived on demand and carries no live
// references, so callers may retain it freely.
type Status struct {
	// Running reports whether the background loop is active.
	Running bool `json:"running"`

	// LastAccountSync and LastUsageSync are the completion times of
	// the most recent sync of each class, zero if that class has
	// never run.
	LastAccountSync time.Time `json:"last_account_sync"`
	LastUsageSync   time.Time `json:"last_usage_sync"`

	// NextAccountSync and NextUsageSync are the earliest times each
	// class becomes due again. A class that has never run is due
	// immediately, so its next time is the report time itself.
	NextAccountSync time.Time `json:"next_account_sync"`
	NextUsageSync   time.Time `json:"next_usage_sync"`

	// SuccessfulSyncs and FailedSyncs count completed retry envelopes
	// over the engine's lifetime, manual triggers included. A single
	// failed envelope may span several attempts.
	SuccessfulSyncs int64 `json:"successful_syncs"`
	FailedSyncs     int64 `json:"failed_syncs"`

	// LastError is the message of the most recent exhausted retry
	// envelope, empty while none has failed.
	LastError string `json:"last_error,omitempty"`
}
