package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
)

// OtoDriver opens the process-wide oto context. oto permits a single
// context per process, so Open may only succeed once.
type OtoDriver struct{}

// NewOtoDriver creates an oto driver
func NewOtoDriver() *OtoDriver {
	return &OtoDriver{}
}

// Name returns the driver name used in configuration
func (d *OtoDriver) Name() string {
	return "oto"
}

// Open creates the oto context and a player pulling from src
func (d *OtoDriver) Open(req DeviceSpec, src beep.Streamer) (Device, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	spec := req
	var otoFormat oto.Format
	switch req.Format {
	case FormatU8:
		otoFormat = oto.FormatUnsignedInt8
	case FormatS16:
		otoFormat = oto.FormatSignedInt16LE
	default:
		// oto has no 24/32-bit integer output
		otoFormat = oto.FormatFloat32LE
		spec.Format = FormatF32
	}

	bufferSize := time.Duration(req.BufferFrames) * time.Second / time.Duration(req.SampleRate)

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(req.SampleRate),
		ChannelCount: int(req.Channels),
		Format:       otoFormat,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oto context: %w", err)
	}
	<-ready

	dev := &otoDevice{ctx: ctx, spec: spec}
	dev.player = ctx.NewPlayer(&otoSource{
		render:   newRenderer(src),
		format:   spec.Format,
		channels: int(spec.Channels),
	})

	slog.Debug("oto playback device initialized", "requested", req.String(), "negotiated", spec.String())
	return dev, nil
}

type otoDevice struct {
	ctx    *oto.Context
	player *oto.Player
	spec   DeviceSpec

	mu     sync.Mutex
	closed bool
}

func (d *otoDevice) Spec() DeviceSpec {
	return d.spec
}

func (d *otoDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.player.Play()
	return d.ctx.Resume()
}

func (d *otoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	if err := d.player.Close(); err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return d.ctx.Suspend()
}

// otoSource adapts the renderer to the io.Reader oto pulls from
type otoSource struct {
	render   *renderer
	format   SampleFormat
	channels int
}

func (s *otoSource) Read(p []byte) (int, error) {
	frameSize := s.format.BytesPerSample() * s.channels
	n := len(p) / frameSize * frameSize
	s.render.fill(p[:n], s.format, s.channels)
	return n, nil
}
