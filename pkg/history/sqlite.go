package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the cgo "sqlite3" driver
	_ "modernc.org/sqlite"          // registers the pure Go "sqlite" driver

	"mercator-hq/ganymede/pkg/config"
)

// SQLiteStore implements Store using SQLite.
//
// Two drivers are supported: the pure Go "sqlite" driver (the default,
// no cgo required) and the cgo "sqlite3" driver. Both read and write
// the same file format; the choice is a build concern, not a data
// concern.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite history store.
// It opens the database, configures the connection pool, and
// initializes the schema. The parent directory of the database file is
// created if it does not exist.
func NewSQLiteStore(cfg config.SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		cfg.Path = config.DefaultHistorySQLitePath
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = config.DefaultHistorySQLiteOpenConns
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = config.DefaultHistorySQLiteIdleConns
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = config.DefaultHistorySQLiteBusyTimeout
	}

	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError("sqlite", "mkdir", err)
		}
	}

	logger := slog.Default().With("component", "history.sqlite")

	db, err := sql.Open(driver, cfg.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.initialize(cfg.BusyTimeout); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite history store initialized",
		"path", cfg.Path,
		"driver", driver,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// driverName maps the configured driver to a registered database/sql
// driver name.
func driverName(configured string) (string, error) {
	switch configured {
	case "", "sqlite":
		return "sqlite", nil
	case "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q (want \"sqlite\" or \"sqlite3\")", configured)
	}
}

// initialize enables WAL mode, sets the busy timeout, and creates the
// schema.
func (s *SQLiteStore) initialize(busyTimeout time.Duration) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return NewStorageError("sqlite", "enable_wal", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "verify_schema",
			fmt.Errorf("schema version mismatch: have %d, want %d", version, SchemaVersion))
	}

	return nil
}

// Append persists a record.
func (s *SQLiteStore) Append(ctx context.Context, record *Record) error {
	const insert = `
INSERT INTO usage_history (id, provider, recorded_at, window_days, total_cost, total_requests, total_tokens)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, insert,
		record.ID,
		record.Provider,
		record.RecordedAt.UnixNano(),
		record.WindowDays,
		record.TotalCost,
		record.TotalRequests,
		record.TotalTokens,
	)
	if err != nil {
		return NewStorageError("sqlite", "append", err)
	}

	return nil
}

// Query retrieves records matching the filter, newest first.
func (s *SQLiteStore) Query(ctx context.Context, query *Query) ([]*Record, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT id, provider, recorded_at, window_days, total_cost, total_requests, total_tokens FROM usage_history" +
		where + " ORDER BY recorded_at DESC"

	if query != nil {
		if query.Limit > 0 {
			sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
			if query.Offset > 0 {
				sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
			}
		} else if query.Offset > 0 {
			// SQLite requires a LIMIT clause before OFFSET; -1 means unlimited.
			sqlQuery += fmt.Sprintf(" LIMIT -1 OFFSET %d", query.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "iterate", err)
	}

	return records, nil
}

// Count returns the number of records matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, query *Query) (int64, error) {
	where, args := buildWhereClause(query)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_history"+where, args...).Scan(&count)
	if err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes records matching the filter.
func (s *SQLiteStore) Delete(ctx context.Context, query *Query) (int64, error) {
	where, args := buildWhereClause(query)

	result, err := s.db.ExecContext(ctx, "DELETE FROM usage_history"+where, args...)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "rows_affected", err)
	}

	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	return nil
}

// buildWhereClause constructs a WHERE clause from the query filters.
// It returns the clause with a leading space, or an empty string when
// no filters are set, plus the bind arguments.
func buildWhereClause(query *Query) (string, []interface{}) {
	if query == nil {
		return "", nil
	}

	conditions := []string{}
	args := []interface{}{}

	if query.Provider != "" {
		conditions = append(conditions, "provider = ?")
		args = append(args, query.Provider)
	}
	if query.Start != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, query.Start.UnixNano())
	}
	if query.End != nil {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, query.End.UnixNano())
	}

	if len(conditions) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanRecord reads one result row into a Record.
func scanRecord(rows *sql.Rows) (*Record, error) {
	var record Record
	var recordedAt int64

	err := rows.Scan(
		&record.ID,
		&record.Provider,
		&recordedAt,
		&record.WindowDays,
		&record.TotalCost,
		&record.TotalRequests,
		&record.TotalTokens,
	)
	if err != nil {
		return nil, err
	}

	record.RecordedAt = time.Unix(0, recordedAt).UTC()
	return &record, nil
}
