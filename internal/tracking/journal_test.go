package tracking

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctoth/mixkit/mixer"
)

func TestNewRunID(t *testing.T) {
	first := NewRunID()
	second := NewRunID()

	_, err := ulid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestJournalRecordsEvents(t *testing.T) {
	db := setupTestDB(t)
	journal := NewJournal(db, "run-1")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	journal.Observe(mixer.Event{Op: mixer.OpPlayChannel, Path: "boom.wav", Channel: 3, Loops: 2, Time: at})
	journal.Observe(mixer.Event{Op: mixer.OpLoadSound, Path: "gone.wav", Err: errors.New("couldn't open 'gone.wav': file not found"), Time: at})
	journal.Observe(mixer.Event{Op: mixer.OpVolumeChunk, Channel: 3, Volume: 64, Previous: 128, Time: at})

	assert.Equal(t, 3, journal.Written())
	assert.False(t, journal.Disabled())

	var (
		op      string
		channel int
		loops   int
		ts      int64
		runID   string
	)
	err := db.QueryRow(`SELECT op, channel, loops, timestamp, run_id FROM playback_events WHERE path = 'boom.wav'`).
		Scan(&op, &channel, &loops, &ts, &runID)
	require.NoError(t, err)
	assert.Equal(t, "play_channel", op)
	assert.Equal(t, 3, channel)
	assert.Equal(t, 2, loops)
	assert.Equal(t, at.Unix(), ts)
	assert.Equal(t, "run-1", runID)

	var errText string
	require.NoError(t, db.QueryRow(`SELECT error FROM playback_events WHERE path = 'gone.wav'`).Scan(&errText))
	assert.Contains(t, errText, "file not found")

	var volume, previous int
	require.NoError(t, db.QueryRow(`SELECT volume, previous FROM playback_events WHERE op = 'volume_chunk'`).Scan(&volume, &previous))
	assert.Equal(t, 64, volume)
	assert.Equal(t, 128, previous)
}

func TestJournalDisablesOnWriteFailure(t *testing.T) {
	db := setupTestDB(t)
	journal := NewJournal(db, "run-1")
	require.NoError(t, db.Close())

	journal.Observe(mixer.Event{Op: mixer.OpHaltMusic})
	assert.True(t, journal.Disabled())
	assert.Equal(t, 0, journal.Written())

	// later events are ignored without touching the database
	assert.NotPanics(t, func() {
		journal.Observe(mixer.Event{Op: mixer.OpHaltMusic})
	})
}

func TestJournalAsMixerObserver(t *testing.T) {
	db := setupTestDB(t)
	journal := NewJournal(db, NewRunID())

	backend := mixer.NewBackend(mixer.Config{Driver: "null", Fs: afero.NewMemMapFs()})
	t.Cleanup(func() { _ = backend.Close() })

	m, err := backend.NewMixer(mixer.WithObserver(journal))
	require.NoError(t, err)

	_, err = m.LoadWAV("missing.wav")
	require.Error(t, err)
	m.VolumeMusic(32)
	m.HaltChannel(-1)

	events, err := GetRecentEvents(db, QueryFilter{RunID: journal.RunID()})
	require.NoError(t, err)
	require.Len(t, events, 3)

	ops := []string{events[2].Op, events[1].Op, events[0].Op}
	assert.ElementsMatch(t, []string{"load_sound", "volume_music", "halt_channel"}, ops)
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	observer := NewSlogObserver(logger)

	observer.Observe(mixer.Event{Op: mixer.OpPlayMusic, Path: "theme.ogg", Channel: -1, Loops: -1})
	observer.Observe(mixer.Event{Op: mixer.OpVolumeMusic, Volume: 10, Previous: 128})
	observer.Observe(mixer.Event{Op: mixer.OpLoadMusic, Path: "x.ogg", Err: errors.New("boom")})

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "op=play_music")
	assert.Contains(t, lines[0], "loops=-1")
	assert.Contains(t, lines[1], "previous=128")
	assert.Contains(t, lines[2], "error=boom")
}

func TestNewSlogObserverDefaultsLogger(t *testing.T) {
	observer := NewSlogObserver(nil)
	assert.NotNil(t, observer.logger)
}
