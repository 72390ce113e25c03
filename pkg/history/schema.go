package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the usage history schema.
// Timestamps are stored as Unix nanoseconds so that range queries compare
// numerically and both SQL drivers read them back identically.
const Schema = `
-- Usage snapshots table
CREATE TABLE IF NOT EXISTS usage_history (
    id TEXT PRIMARY KEY,
    provider TEXT NOT NULL,
    recorded_at INTEGER NOT NULL,
    window_days INTEGER NOT NULL,
    total_cost REAL NOT NULL,
    total_requests INTEGER NOT NULL,
    total_tokens INTEGER NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_usage_history_recorded_at ON usage_history(recorded_at);
CREATE INDEX IF NOT EXISTS idx_usage_history_provider ON usage_history(provider);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
