package audio

import (
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// AudioData represents a fully decoded sample held in memory
type AudioData struct {
	Samples    []byte       // Raw interleaved PCM data
	Channels   uint32       // Number of audio channels
	SampleRate uint32       // Sample rate in Hz
	Format     SampleFormat // Encoding of Samples
}

// Frames returns the number of sample frames held in the data
func (a *AudioData) Frames() int {
	frameSize := int(a.Channels) * a.Format.BytesPerSample()
	if frameSize == 0 {
		return 0
	}
	return len(a.Samples) / frameSize
}

// Duration returns the playback length at the data's own sample rate
func (a *AudioData) Duration() time.Duration {
	if a.SampleRate == 0 {
		return 0
	}
	return time.Duration(a.Frames()) * time.Second / time.Duration(a.SampleRate)
}

// BeepFormat describes the data in beep terms
func (a *AudioData) BeepFormat() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(a.SampleRate),
		NumChannels: int(a.Channels),
		Precision:   a.Format.BytesPerSample(),
	}
}

// Decoder decodes a whole file into memory
type Decoder interface {
	// Decode reads audio data from reader and returns decoded PCM data
	Decode(reader io.Reader) (*AudioData, error)

	// CanDecode checks if this decoder can handle the given filename
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles
	FormatName() string
}

// StreamDecoder opens a file for incremental decoding. The returned stream
// owns rc and closes it when closed.
type StreamDecoder interface {
	DecodeStream(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error)
	CanDecode(filename string) bool
	FormatName() string
}
