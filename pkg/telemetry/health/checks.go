package health

import (
	"context"
	"fmt"
)

// ProvidersCheck returns a check that fails when fewer than min providers
// report a connected account. The count function is typically backed by the
// monitor's cached account snapshots, so the check does not trigger new
// provider fetches.
func ProvidersCheck(count func(ctx context.Context) int, min int) CheckFunc {
	return func(ctx context.Context) error {
		connected := count(ctx)
		if connected < min {
			return fmt.Errorf("%d of %d required providers connected", connected, min)
		}
		return nil
	}
}

// SyncCheck returns a check that fails when the background sync engine
// is not running.
func SyncCheck(running func() bool) CheckFunc {
	return func(ctx context.Context) error {
		if !running() {
			return fmt.Errorf("background sync not running")
		}
		return nil
	}
}

// RegisterProvidersCheck registers a "providers" readiness check using the
// checker's configured minimum connected provider count.
func (c *Checker) RegisterProvidersCheck(count func(ctx context.Context) int) {
	c.RegisterCheck("providers", ProvidersCheck(count, c.minConnectedProviders))
}

// RegisterSyncCheck registers a "sync" readiness check.
func (c *Checker) RegisterSyncCheck(running func() bool) {
	c.RegisterCheck("sync", SyncCheck(running))
}
