package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// NewDatabase opens the SQLite journal at dbPath and applies the schema
func NewDatabase(dbPath string) (*sql.DB, error) {
	// Ensure directory exists if not in-memory
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to :memory: is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// ensureSchema creates the database schema if it doesn't exist
func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS playback_events (
    id        INTEGER PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    run_id    TEXT    NOT NULL,
    op        TEXT    NOT NULL,
    path      TEXT    NOT NULL DEFAULT '',
    channel   INTEGER NOT NULL DEFAULT 0,
    loops     INTEGER NOT NULL DEFAULT 0,
    volume    INTEGER NOT NULL DEFAULT 0,
    previous  INTEGER NOT NULL DEFAULT 0,
    error     TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON playback_events(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_events_op ON playback_events(op);
CREATE INDEX IF NOT EXISTS idx_events_run ON playback_events(run_id);
CREATE INDEX IF NOT EXISTS idx_events_failed ON playback_events(op) WHERE error != '';
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
