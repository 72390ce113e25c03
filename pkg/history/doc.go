// Package history persists point-in-time snapshots of provider usage.
//
// Every successful usage sync appends one Record per provider, building
// a local spend timeline that outlives the cache and, with the SQLite
// backend, survives restarts.
//
// # Backends
//
// Two backends implement the Store interface:
//
//   - MemoryStore keeps records in a slice. Fast, but lost on restart.
//   - SQLiteStore persists to a single database file, using either the
//     pure Go "sqlite" driver (the default) or the cgo "sqlite3" driver.
//
// NewStore selects the backend from configuration:
//
//	store, err := history.NewStore(cfg.History)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
// # Retention
//
// Pruner enforces the retention policy in two phases: age-based
// (records older than the configured number of days) and count-based
// (the oldest records beyond MaxRecords). A cron expression schedules
// automatic pruning:
//
//	pruner := history.NewPruner(store, cfg.History.Retention)
//	if err := pruner.Start(ctx); err != nil {
//		return err
//	}
//	defer pruner.Stop()
package history
