//go:build cgo

package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/gopxl/beep/v2"
)

const malgoAvailable = true

var malgoBackendNames = map[string]malgo.Backend{
	"wasapi":     malgo.BackendWasapi,
	"dsound":     malgo.BackendDsound,
	"winmm":      malgo.BackendWinmm,
	"coreaudio":  malgo.BackendCoreaudio,
	"pulseaudio": malgo.BackendPulseaudio,
	"alsa":       malgo.BackendAlsa,
	"jack":       malgo.BackendJack,
}

// MalgoDriver opens playback devices through miniaudio
type MalgoDriver struct {
	backends []malgo.Backend
}

// NewMalgoDriver creates a driver that tries the named native backends in
// order. Unknown names are skipped; an empty list lets miniaudio choose.
func NewMalgoDriver(backends []string) *MalgoDriver {
	d := &MalgoDriver{}
	for _, name := range backends {
		if backend, ok := malgoBackendNames[name]; ok {
			d.backends = append(d.backends, backend)
		} else {
			slog.Warn("unknown malgo backend ignored", "backend", name)
		}
	}
	return d
}

// Name returns the driver name used in configuration
func (d *MalgoDriver) Name() string {
	return "malgo"
}

// Open initializes a malgo context and a playback device fed by src
func (d *MalgoDriver) Open(req DeviceSpec, src beep.Streamer) (Device, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	audioCtx, err := newMalgoContext(d.backends)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = toMalgoFormat(req.Format)
	deviceConfig.Playback.Channels = req.Channels
	deviceConfig.SampleRate = req.SampleRate
	deviceConfig.PeriodSizeInFrames = req.BufferFrames
	deviceConfig.Alsa.NoMMap = 1

	dev := &malgoDevice{ctx: audioCtx, render: newRenderer(src)}

	// The negotiated layout is only known after InitDevice, so the callback
	// reads it from dev.spec which is set before Start.
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, framecount uint32) {
			spec := dev.spec
			dev.render.fill(pOutputSample, spec.Format, int(spec.Channels))
		},
	}

	device, err := malgo.InitDevice(audioCtx.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = audioCtx.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	dev.device = device
	dev.spec = DeviceSpec{
		SampleRate:   device.SampleRate(),
		Format:       fromMalgoFormat(device.PlaybackFormat()),
		Channels:     device.PlaybackChannels(),
		BufferFrames: req.BufferFrames,
	}

	if dev.spec.Format == FormatUnknown {
		// miniaudio converts from the requested format when the native one is exotic
		dev.spec.Format = req.Format
	}

	slog.Debug("malgo playback device initialized", "requested", req.String(), "negotiated", dev.spec.String())
	return dev, nil
}

type malgoDevice struct {
	ctx    *malgoContext
	device *malgo.Device
	render *renderer
	spec   DeviceSpec

	mu     sync.Mutex
	closed bool
}

func (d *malgoDevice) Spec() DeviceSpec {
	return d.spec
}

func (d *malgoDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if err := d.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

func (d *malgoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	_ = d.device.Stop()
	d.device.Uninit()
	return d.ctx.Close()
}

func toMalgoFormat(format SampleFormat) malgo.FormatType {
	switch format {
	case FormatU8:
		return malgo.FormatU8
	case FormatS16:
		return malgo.FormatS16
	case FormatS24:
		return malgo.FormatS24
	case FormatS32:
		return malgo.FormatS32
	case FormatF32:
		return malgo.FormatF32
	default:
		return malgo.FormatUnknown
	}
}

func fromMalgoFormat(format malgo.FormatType) SampleFormat {
	switch format {
	case malgo.FormatU8:
		return FormatU8
	case malgo.FormatS16:
		return FormatS16
	case malgo.FormatS24:
		return FormatS24
	case malgo.FormatS32:
		return FormatS32
	case malgo.FormatF32:
		return FormatF32
	default:
		return FormatUnknown
	}
}
