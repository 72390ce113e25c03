// Package syncer keeps cached provider data fresh without manual
// intervention.
//
// The Engine drives the monitor's invalidate-then-refetch operations on
// two independent cadences: account data (slow-moving, 15 minutes by
// default) and usage data (5 minutes by default). It never talks to a
// provider itself; all admission control and caching stays in the
// layers below.
//
// # Scheduling
//
// One goroutine wakes on a check interval of one quarter of the shorter
// cadence and runs whichever syncs have come due, so a due sync starts
// at most a quarter cadence late rather than the moment it expires:
//
//	engine, err := syncer.NewEngine(syncer.Config{
//		Sync:    cfg.Sync,
//		Monitor: func() syncer.Refresher { return monitor },
//	})
//	if err != nil {
//		return err
//	}
//	if err := engine.Start(ctx); err != nil {
//		return err
//	}
//	defer engine.Stop()
//
// The monitor is resolved through the Config.Monitor func at the start
// of every sync, not held across cycles.
//
// # Retry
//
// Each sync runs through a retry envelope: up to MaxRetryAttempts
// attempts with a fixed RetryDelay between them, no backoff. When the
// envelope is exhausted the failure counter and last error are updated
// and the loop carries on; a failing provider backend can never stop
// the engine. Only context cancellation or Stop ends the loop.
//
// # Status
//
// GetSyncStatus reports last/next sync times per cadence, the running
// flag, lifetime success and failure counters, and the last error.
// SyncAllProviders, SyncProviderAccounts, and SyncProviderUsage trigger
// immediate syncs outside the schedule, through the same envelope and
// counters.
package syncer
