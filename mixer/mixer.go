// Package mixer plays sound effects and music through a process-wide audio
// backend. The first Mixer constructed brings the backend up; later ones
// share it. Sounds are decoded into memory and may play on any channel,
// while a single music track streams from disk.
package mixer

import (
	"log/slog"
	"time"

	"github.com/gopxl/beep/v2"
)

// Mixer is a handle to the shared backend. It is safe for concurrent use.
type Mixer struct {
	backend   *Backend
	observers []Observer
}

// Option configures a Mixer
type Option func(*Mixer)

// WithObserver registers an observer notified after every operation
func WithObserver(o Observer) Option {
	return func(m *Mixer) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// New returns a Mixer on the process-wide backend, initializing it on first
// use. Every call after a failed initialization returns the same error.
func New(opts ...Option) (*Mixer, error) {
	return Default().NewMixer(opts...)
}

// NewMixer returns a Mixer on b, initializing b on first use
func (b *Backend) NewMixer(opts ...Option) (*Mixer, error) {
	if err := b.EnsureInitialized(); err != nil {
		return nil, err
	}
	m := &Mixer{backend: b}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Backend returns the backend the mixer plays through
func (m *Mixer) Backend() *Backend {
	return m.backend
}

// LoadWAV decodes a sound file completely into memory. Any registered
// format is accepted; the name follows the classic mixer API.
func (m *Mixer) LoadWAV(path string) (*Chunk, error) {
	return m.LoadSound(path)
}

// LoadSound decodes a sound file completely into memory
func (m *Mixer) LoadSound(path string) (*Chunk, error) {
	start := time.Now()
	chunk, err := m.backend.loadChunk(path)
	if err != nil {
		slog.Error("failed to load sound", "path", path, "error", err)
		m.emit(Event{Op: OpLoadSound, Path: path, Err: err})
		return nil, err
	}

	slog.Debug("sound loaded",
		"path", path,
		"format", chunk.format,
		"frames", chunk.Len(),
		"duration", chunk.Duration(),
		"load_time", time.Since(start))
	m.emit(Event{Op: OpLoadSound, Path: path})
	return chunk, nil
}

// LoadMusic opens a music file for streaming. Close the returned Music when
// it is no longer needed.
func (m *Mixer) LoadMusic(path string) (*Music, error) {
	music, err := m.backend.loadMusic(path)
	if err != nil {
		slog.Error("failed to load music", "path", path, "error", err)
		m.emit(Event{Op: OpLoadMusic, Path: path, Err: err})
		return nil, err
	}

	slog.Debug("music loaded",
		"path", path,
		"format", music.format,
		"sample_rate", music.SampleRate())
	m.emit(Event{Op: OpLoadMusic, Path: path})
	return music, nil
}

// PlayChannel plays chunk on channel, replacing whatever that channel was
// playing. Channel -1 picks the first idle channel. loops is the number of
// extra passes: 0 plays once, -1 repeats until halted. It returns the
// channel used.
func (m *Mixer) PlayChannel(chunk *Chunk, channel, loops int) (int, error) {
	used, err := m.playChannel(chunk, channel, loops)
	ev := Event{Op: OpPlayChannel, Channel: used, Loops: loops, Err: err}
	if chunk != nil {
		ev.Path = chunk.path
	}
	m.emit(ev)
	return used, err
}

func (m *Mixer) playChannel(chunk *Chunk, channel, loops int) (int, error) {
	fail := func(err error) (int, error) {
		slog.Error("play channel failed", "channel", channel, "loops", loops, "error", err)
		return channel, &PlaybackError{Op: string(OpPlayChannel), Channel: channel, Err: err}
	}

	if err := m.backend.usable(); err != nil {
		return fail(err)
	}
	if chunk == nil {
		return fail(ErrNilResource)
	}
	if loops < -1 {
		return fail(ErrInvalidLoops)
	}

	used, err := m.backend.engine.play(channel, func() (*voice, error) {
		return newVoice(chunk.pass, loops, nil)
	})
	if err != nil {
		channel = used
		return fail(err)
	}

	slog.Debug("playing sound", "path", chunk.path, "channel", used, "loops", loops)
	return used, nil
}

// PlayMusic starts music, stopping any track already playing. loops follows
// PlayChannel.
func (m *Mixer) PlayMusic(music *Music, loops int) error {
	err := m.playMusic(music, loops)
	ev := Event{Op: OpPlayMusic, Loops: loops, Err: err}
	if music != nil {
		ev.Path = music.path
	}
	m.emit(ev)
	return err
}

func (m *Mixer) playMusic(music *Music, loops int) error {
	fail := func(err error) error {
		slog.Error("play music failed", "loops", loops, "error", err)
		return &PlaybackError{Op: string(OpPlayMusic), Channel: -1, Err: err}
	}

	if err := m.backend.usable(); err != nil {
		return fail(err)
	}
	if music == nil {
		return fail(ErrNilResource)
	}
	if loops < -1 {
		return fail(ErrInvalidLoops)
	}
	if music.released.Load() || !music.acquire() {
		return fail(ErrResourceClosed)
	}

	e := m.backend.engine
	err := e.playMusic(func() (*voice, error) {
		open := func() (beep.Streamer, error) {
			return music.pass(e.rate)
		}
		return newVoice(open, loops, music.release)
	})
	if err != nil {
		music.release()
		return fail(err)
	}

	slog.Debug("playing music", "path", music.path, "loops", loops)
	return nil
}

// HaltChannel stops a channel, or every channel when channel is -1. Halting
// an idle or out of range channel does nothing.
func (m *Mixer) HaltChannel(channel int) {
	m.backend.engine.halt(channel)
	slog.Debug("channel halted", "channel", channel)
	m.emit(Event{Op: OpHaltChannel, Channel: channel})
}

// HaltMusic stops the music track, if any
func (m *Mixer) HaltMusic() {
	m.backend.engine.haltMusic()
	slog.Debug("music halted")
	m.emit(Event{Op: OpHaltMusic, Channel: -1})
}

// VolumeMusic sets the music volume in 0..MaxVolume and returns the previous
// volume. Values above MaxVolume are clamped; a negative volume only queries.
func (m *Mixer) VolumeMusic(volume int) int {
	prev := m.backend.engine.setMusicVolume(volume)
	m.emit(Event{Op: OpVolumeMusic, Channel: -1, Volume: volume, Previous: prev})
	return prev
}

// VolumeChunk sets a channel's volume and returns the previous one. Channel
// -1 sets every channel and returns their average previous volume. Out of
// range channels return 0. Clamping follows VolumeMusic.
func (m *Mixer) VolumeChunk(channel, volume int) int {
	prev := m.backend.engine.setVolume(channel, volume)
	m.emit(Event{Op: OpVolumeChunk, Channel: channel, Volume: volume, Previous: prev})
	return prev
}

// Playing reports whether channel is playing
func (m *Mixer) Playing(channel int) bool {
	return m.backend.engine.playing(channel)
}

// PlayingCount returns the number of busy channels
func (m *Mixer) PlayingCount() int {
	return m.backend.engine.playingCount()
}

// PlayingMusic reports whether a music track is playing
func (m *Mixer) PlayingMusic() bool {
	return m.backend.engine.musicPlaying()
}

// AllocatedChannels returns the number of mixing channels
func (m *Mixer) AllocatedChannels() int {
	return m.backend.engine.channelCount()
}

// AllocateChannels resizes the channel set, halting channels beyond n, and
// returns the new count
func (m *Mixer) AllocateChannels(n int) int {
	got := m.backend.engine.allocate(n)
	slog.Debug("mixing channels allocated", "channels", got)
	return got
}

func (m *Mixer) emit(ev Event) {
	if len(m.observers) == 0 {
		return
	}
	ev.Time = time.Now()
	for _, o := range m.observers {
		o.Observe(ev)
	}
}
