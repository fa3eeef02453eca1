package tracking

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

// setupTestDB opens a fresh journal database in a temp directory
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")

	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewDatabaseInMemory(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	defer db.Close()

	// schema must be visible on the single pooled connection
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM playback_events").Scan(&count); err != nil {
		t.Fatalf("in-memory schema not usable: %v", err)
	}
}

func TestDatabaseSchemaExists(t *testing.T) {
	db := setupTestDB(t)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM playback_events").Scan(&count); err != nil {
		t.Errorf("playback_events is not queryable: %v", err)
	}
}

func TestDatabaseIndexesExist(t *testing.T) {
	db := setupTestDB(t)

	expectedIndexes := []string{
		"idx_events_timestamp",
		"idx_events_op",
		"idx_events_run",
		"idx_events_failed",
	}

	for _, indexName := range expectedIndexes {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", indexName).Scan(&count)
		if err != nil {
			t.Errorf("failed to query for index %s: %v", indexName, err)
		}
		if count != 1 {
			t.Errorf("index %s does not exist (found %d entries)", indexName, count)
		}
	}
}

func TestNewDatabaseIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	first, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := first.Exec(`INSERT INTO playback_events (timestamp, run_id, op) VALUES (1, 'r', 'halt_music')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	first.Close()

	second, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	var count int
	if err := second.QueryRow("SELECT COUNT(*) FROM playback_events").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected existing rows to survive reopen, got %d", count)
	}
}
