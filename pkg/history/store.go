package history

import (
	"context"
	"fmt"

	"mercator-hq/ganymede/pkg/config"
)

// Store persists usage history records.
//
// Records are append-only; updates are not supported. Implementations
// must be safe for concurrent use.
type Store interface {
	// Append persists a record. The caller assigns the record's ID;
	// duplicate IDs are an error.
	Append(ctx context.Context, record *Record) error

	// Query retrieves records matching the filter, newest first.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the filter and returns how many
	// were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the store.
	Close() error
}

// NewStore creates a store for the configured backend.
func NewStore(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite)
	default:
		return nil, fmt.Errorf("unsupported history backend %q (want \"memory\" or \"sqlite\")", cfg.Backend)
	}
}
