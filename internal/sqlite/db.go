package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases intact and serializes
	// the conditional event writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist yet
func (db *DB) RunMigrations() error {
	migration := `
-- One timestamp per participant and event id
CREATE TABLE IF NOT EXISTS activity_events (
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    event_id TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    update_type TEXT NOT NULL CHECK(update_type IN ('IMMUTABLE', 'MUTABLE', 'FUTURE_ONLY')),
    client_time_zone TEXT,
    created_on TEXT NOT NULL,
    PRIMARY KEY (tenant_id, user_id, event_id)
);

-- Append-only log of accepted event changes
CREATE TABLE IF NOT EXISTS event_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    event_id TEXT NOT NULL,
    change_type TEXT NOT NULL CHECK(change_type IN ('recorded', 'deleted')),
    timestamp TEXT NOT NULL,
    update_type TEXT NOT NULL,
    client_time_zone TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_history_user ON event_history(tenant_id, user_id);

-- Participant progress per session instance
CREATE TABLE IF NOT EXISTS adherence_records (
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    instance_guid TEXT NOT NULL,
    started_on TEXT,
    finished_on TEXT,
    declined INTEGER NOT NULL DEFAULT 0,
    client_time_zone TEXT,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (tenant_id, user_id, instance_guid)
);

-- Published schedule per study
CREATE TABLE IF NOT EXISTS schedules (
    tenant_id TEXT PRIMARY KEY,
    guid TEXT NOT NULL,
    definition TEXT NOT NULL,
    stream_start_event_ids TEXT NOT NULL DEFAULT '[]',
    published_at TEXT NOT NULL
);

-- Timeline rows of the published schedule, replaced on publish
CREATE TABLE IF NOT EXISTS timeline_metadata (
    tenant_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    instance_guid TEXT NOT NULL,
    session_guid TEXT NOT NULL,
    start_event_id TEXT NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (tenant_id, position),
    FOREIGN KEY (tenant_id) REFERENCES schedules(tenant_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_timeline_instance ON timeline_metadata(tenant_id, instance_guid);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_tenant_keys ON api_keys(tenant_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Timestamps are stored as RFC 3339 text so the recorded offset survives.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
