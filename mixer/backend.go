package mixer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/spf13/afero"

	"github.com/ctoth/mixkit/internal/audio"
)

// Backend owns the output device, the decoder registry and the mixing
// engine. It is brought up at most once, by the first call to
// EnsureInitialized, and every Mixer created from it shares that state.
type Backend struct {
	cfgMu   sync.Mutex
	cfg     Config
	started bool

	// driver overrides the factory when set
	driver  audio.Driver
	factory audio.DriverFactory

	once    sync.Once
	initErr error
	runs    atomic.Int32
	ready   atomic.Bool
	closed  atomic.Bool

	fs           afero.Fs
	device       audio.Device
	spec         Spec
	registry     *audio.DecoderRegistry
	formats      FormatFlag
	formatErrors map[FormatFlag]error
	engine       *engine
}

var defaultBackend = NewBackend(DefaultConfig())

// Default returns the process-wide backend used by New
func Default() *Backend {
	return defaultBackend
}

// Configure replaces the configuration of the process-wide backend. It fails
// with ErrAlreadyInitialized once initialization has begun.
func Configure(cfg Config) error {
	return defaultBackend.Reconfigure(cfg)
}

// NewBackend creates an isolated backend. Nothing is opened until the first
// call to EnsureInitialized.
func NewBackend(cfg Config) *Backend {
	return &Backend{
		cfg:     cfg.withDefaults(),
		factory: audio.NewDriverFactory(),
		engine:  newEngine(),
	}
}

// Reconfigure replaces the backend configuration before initialization
func (b *Backend) Reconfigure(cfg Config) error {
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()
	if b.started {
		return ErrAlreadyInitialized
	}
	b.cfg = cfg.withDefaults()
	return nil
}

// EnsureInitialized brings the backend up exactly once. Concurrent callers
// block until the first attempt finishes and all observe its result; a
// failed attempt is not retried.
func (b *Backend) EnsureInitialized() error {
	b.once.Do(b.initialize)
	return b.initErr
}

func (b *Backend) initialize() {
	b.runs.Add(1)

	b.cfgMu.Lock()
	b.started = true
	cfg := b.cfg
	b.cfgMu.Unlock()

	if err := b.bringUp(cfg); err != nil {
		slog.Error("audio backend initialization failed", "error", err)
		b.initErr = err
		return
	}
	b.ready.Store(true)
}

func (b *Backend) bringUp(cfg Config) error {
	req, err := cfg.deviceSpec()
	if err != nil {
		return &BackendError{Op: "configure", Err: err}
	}

	driver := b.driver
	if driver == nil {
		driver, err = b.factory.CreateDriver(cfg.Driver)
		if err != nil {
			return &BackendError{Op: "init", Err: err}
		}
	}

	slog.Debug("opening audio device",
		"driver", driver.Name(),
		"requested", req.String())

	device, err := driver.Open(req, b.engine)
	if err != nil {
		return &BackendError{Op: "open_audio", Err: fmt.Errorf("%s driver: %w", driver.Name(), err)}
	}

	got := device.Spec()
	b.engine.setRate(beep.SampleRate(got.SampleRate))

	registry := audio.NewDefaultRegistry()
	formats, formatErrors := registry.InitFormats(cfg.Formats, audio.InitOptions{
		Fs:         cfg.Fs,
		SoundFont:  cfg.SoundFont,
		SampleRate: beep.SampleRate(got.SampleRate),
	})
	for flag, ferr := range formatErrors {
		slog.Warn("audio format unavailable", "format", flag.String(), "error", ferr)
	}

	b.engine.allocate(cfg.MixChannels)

	if err := device.Start(); err != nil {
		_ = device.Close()
		return &BackendError{Op: "start", Err: err}
	}

	b.fs = cfg.Fs
	b.device = device
	b.registry = registry
	b.formats = formats
	b.formatErrors = formatErrors
	b.spec = Spec{
		Frequency:    int(got.SampleRate),
		Format:       got.Format.String(),
		Channels:     int(got.Channels),
		BufferFrames: int(got.BufferFrames),
	}

	slog.Info("audio backend initialized",
		"driver", driver.Name(),
		"frequency", b.spec.Frequency,
		"format", b.spec.Format,
		"channels", b.spec.Channels,
		"buffer_frames", b.spec.BufferFrames,
		"mix_channels", cfg.MixChannels,
		"formats", formats.String())

	return nil
}

// Initialized reports whether the backend came up successfully
func (b *Backend) Initialized() bool {
	return b.ready.Load()
}

// Spec returns the negotiated output configuration. It is the zero Spec
// until the backend is initialized.
func (b *Backend) Spec() Spec {
	if !b.ready.Load() {
		return Spec{}
	}
	return b.spec
}

// Formats returns the optional decoder families that initialized
func (b *Backend) Formats() FormatFlag {
	if !b.ready.Load() {
		return 0
	}
	return b.formats
}

// FormatErrors returns why requested decoder families failed to initialize
func (b *Backend) FormatErrors() map[FormatFlag]error {
	if !b.ready.Load() {
		return nil
	}
	out := make(map[FormatFlag]error, len(b.formatErrors))
	for k, v := range b.formatErrors {
		out[k] = v
	}
	return out
}

// SupportedFormats lists the decoder names available for loading
func (b *Backend) SupportedFormats() []string {
	if !b.ready.Load() {
		return nil
	}
	return b.registry.GetSupportedFormats()
}

// Render advances playback by len(samples) frames and writes the mix into
// samples. Hosts using the null driver call it to drive the mixer.
func (b *Backend) Render(samples [][2]float64) int {
	n, _ := b.engine.Stream(samples)
	return n
}

// Close halts all playback and closes the device. The process-wide backend
// cannot be closed.
func (b *Backend) Close() error {
	if b == defaultBackend {
		return ErrPersistentBackend
	}
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.engine.shutdown()
	if !b.ready.Load() {
		return nil
	}
	slog.Debug("closing audio backend")
	if err := b.device.Close(); err != nil {
		return &BackendError{Op: "close", Err: err}
	}
	return nil
}

// usable returns an error when playback commands cannot run
func (b *Backend) usable() error {
	if !b.ready.Load() {
		return ErrNotInitialized
	}
	if b.closed.Load() {
		return ErrBackendClosed
	}
	return nil
}
