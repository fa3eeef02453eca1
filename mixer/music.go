package mixer

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// Music is a track streamed from its file while it plays. The handle and
// the music slot each hold a reference; the underlying stream is closed
// once the handle is closed and the track is no longer playing.
type Music struct {
	path   string
	format string
	rate   beep.SampleRate

	mu     sync.Mutex
	stream beep.StreamSeekCloser

	refs     atomic.Int32
	released atomic.Bool
	closeErr error
}

// Path returns the file the music streams from
func (m *Music) Path() string {
	return m.path
}

// Format returns the name of the decoder streaming the music
func (m *Music) Format() string {
	return m.format
}

// SampleRate returns the native sample rate of the track
func (m *Music) SampleRate() int {
	return int(m.rate)
}

// Close releases the handle's reference. A playing track keeps streaming
// until it finishes or is halted. Close is idempotent.
func (m *Music) Close() error {
	if !m.released.CompareAndSwap(false, true) {
		return nil
	}
	m.release()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeErr
}

// Closed reports whether the underlying stream has been closed
func (m *Music) Closed() bool {
	return m.refs.Load() <= 0
}

func (m *Music) acquire() bool {
	for {
		n := m.refs.Load()
		if n <= 0 {
			return false
		}
		if m.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (m *Music) release() {
	if m.refs.Add(-1) != 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = m.stream.Close()
	if m.closeErr != nil {
		slog.Warn("failed to close music stream", "path", m.path, "error", m.closeErr)
	} else {
		slog.Debug("music stream closed", "path", m.path)
	}
}

// pass rewinds the track and returns a streamer at the device rate
func (m *Music) pass(rate beep.SampleRate) (beep.Streamer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stream.Seek(0); err != nil {
		return nil, err
	}
	var s beep.Streamer = m.stream
	if m.rate != rate {
		s = beep.Resample(resampleQuality, m.rate, rate, s)
	}
	return s, nil
}

// loadMusic opens path for streaming
func (b *Backend) loadMusic(path string) (*Music, error) {
	file, err := b.fs.Open(path)
	if err != nil {
		return nil, newDecodeError(path, err)
	}

	var rc io.ReadSeekCloser = file
	stream, format, name, err := b.registry.OpenStream(path, rc)
	if err != nil {
		return nil, newDecodeError(path, err)
	}

	m := &Music{
		path:   path,
		format: name,
		rate:   format.SampleRate,
		stream: stream,
	}
	m.refs.Store(1)
	return m, nil
}
