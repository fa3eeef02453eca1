package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gopxl/beep/v2"
)

// Common errors for output drivers
var (
	ErrDriverNotAvailable = errors.New("audio driver not available")
	ErrDeviceClosed       = errors.New("audio device is closed")
)

// DeviceSpec describes an output device configuration. When requesting a
// device it is the wish; after opening it is what the driver negotiated.
type DeviceSpec struct {
	SampleRate   uint32
	Format       SampleFormat
	Channels     uint32
	BufferFrames uint32
}

func (s DeviceSpec) String() string {
	return fmt.Sprintf("%d Hz %s %dch buffer=%d", s.SampleRate, s.Format, s.Channels, s.BufferFrames)
}

// Validate checks that s can be requested from a driver
func (s DeviceSpec) Validate() error {
	if s.SampleRate == 0 {
		return fmt.Errorf("sample rate must be positive")
	}
	if s.Format.BytesPerSample() == 0 {
		return fmt.Errorf("%w: sample format %s", ErrUnsupportedFormat, s.Format)
	}
	if s.Channels != 1 && s.Channels != 2 {
		return fmt.Errorf("channel count must be 1 or 2, got %d", s.Channels)
	}
	if s.BufferFrames == 0 {
		return fmt.Errorf("buffer size must be positive")
	}
	return nil
}

// Device is an opened output device pulling from a beep.Streamer on its
// own thread
type Device interface {
	// Spec returns the negotiated configuration
	Spec() DeviceSpec
	Start() error
	Close() error
}

// Driver opens output devices. Implementations must treat src as a stream
// that never ends; silence is produced by the source, not the driver.
type Driver interface {
	Name() string
	Open(req DeviceSpec, src beep.Streamer) (Device, error)
}

// renderer converts the float stream into device bytes
type renderer struct {
	mu  sync.Mutex
	src beep.Streamer
	buf [][2]float64
}

func newRenderer(src beep.Streamer) *renderer {
	return &renderer{src: src}
}

// fill renders len(out) bytes of audio in the given layout
func (r *renderer) fill(out []byte, format SampleFormat, channels int) {
	frameSize := format.BytesPerSample() * channels
	if frameSize == 0 {
		return
	}
	frames := len(out) / frameSize

	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(r.buf) < frames {
		r.buf = make([][2]float64, frames)
	}
	buf := r.buf[:frames]

	n, _ := r.src.Stream(buf)
	for i := n; i < frames; i++ {
		buf[i] = [2]float64{}
	}

	written := EncodeFrames(out, buf, format, channels)
	for i := written; i < len(out); i++ {
		out[i] = 0
	}
}
