package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder handles MP3 audio format decoding
type Mp3Decoder struct{}

// NewMp3Decoder creates a new MP3 decoder instance
func NewMp3Decoder() *Mp3Decoder {
	slog.Debug("creating new MP3 decoder instance")
	return &Mp3Decoder{}
}

// Decode reads MP3 audio data from reader and returns decoded PCM data
func (d *Mp3Decoder) Decode(reader io.Reader) (*AudioData, error) {
	slog.Debug("starting MP3 decode operation")

	decoder, err := mp3.NewDecoder(reader)
	if err != nil {
		slog.Error("failed to create MP3 decoder", "error", err)
		return nil, ErrInvalidData
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		slog.Error("invalid MP3 sample rate", "sample_rate", sampleRate)
		return nil, ErrInvalidData
	}

	// go-mp3 reports the decoded length up front when the source can seek
	var pcm bytes.Buffer
	if length := decoder.Length(); length > 0 {
		pcm.Grow(int(length))
	}

	if _, err := io.Copy(&pcm, decoder); err != nil {
		slog.Error("failed to read MP3 PCM data", "error", err)
		return nil, ErrReadFailure
	}

	if pcm.Len() == 0 {
		slog.Error("no audio data found in MP3 file")
		return nil, ErrInvalidData
	}

	// go-mp3 always outputs 16-bit signed stereo
	audioData := &AudioData{
		Samples:    pcm.Bytes(),
		Channels:   2,
		SampleRate: uint32(sampleRate),
		Format:     FormatS16,
	}

	slog.Debug("MP3 decode completed",
		"total_bytes", pcm.Len(),
		"sample_rate", audioData.SampleRate,
		"duration_ms", audioData.Duration().Milliseconds())

	return audioData, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *Mp3Decoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".mpeg")
}

// FormatName returns the name of the format this decoder handles
func (d *Mp3Decoder) FormatName() string {
	return "MP3"
}
