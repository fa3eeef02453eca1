package tracking

import (
	"crypto/rand"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ctoth/mixkit/mixer"
)

// NewRunID returns a new sortable identifier for one process run
func NewRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Journal records mixer events in the playback_events table. It disables
// itself after the first write failure so a broken database never
// interferes with playback.
type Journal struct {
	db    *sql.DB
	runID string

	mu       sync.Mutex
	disabled bool
	written  int
}

var _ mixer.Observer = (*Journal)(nil)

// NewJournal creates a journal writing rows stamped with runID
func NewJournal(db *sql.DB, runID string) *Journal {
	return &Journal{db: db, runID: runID}
}

// RunID returns the identifier stamped on every row
func (j *Journal) RunID() string {
	return j.runID
}

// Disabled reports whether a write failure switched the journal off
func (j *Journal) Disabled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.disabled
}

// Written returns the number of rows inserted by this journal
func (j *Journal) Written() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written
}

// Observe implements mixer.Observer
func (j *Journal) Observe(ev mixer.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.disabled {
		return
	}

	errText := ""
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	timestamp := ev.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := j.db.Exec(`
		INSERT INTO playback_events (timestamp, run_id, op, path, channel, loops, volume, previous, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		timestamp.Unix(),
		j.runID,
		string(ev.Op),
		ev.Path,
		ev.Channel,
		ev.Loops,
		ev.Volume,
		ev.Previous,
		errText)
	if err != nil {
		slog.Warn("playback journal failed to record event, disabling", "error", err, "op", ev.Op)
		j.disabled = true
		return
	}

	j.written++
	slog.Debug("playback journal recorded event",
		"run_id", j.runID,
		"op", ev.Op,
		"path", ev.Path,
		"channel", ev.Channel)
}
