package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// AiffDecoder handles AIFF audio format decoding
type AiffDecoder struct{}

// NewAiffDecoder creates a new AIFF decoder instance
func NewAiffDecoder() *AiffDecoder {
	slog.Debug("creating new AIFF decoder instance")
	return &AiffDecoder{}
}

// FormatName returns the name of the format this decoder handles
func (d *AiffDecoder) FormatName() string {
	return "AIFF"
}

// CanDecode checks if this decoder can handle the given filename
func (d *AiffDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	canDecode := strings.HasSuffix(lower, ".aiff") || strings.HasSuffix(lower, ".aif")

	slog.Debug("AIFF decoder checking file compatibility",
		"filename", filename,
		"can_decode", canDecode)

	return canDecode
}

// Decode reads AIFF audio data from reader and returns decoded PCM data
func (d *AiffDecoder) Decode(reader io.Reader) (audioData *AudioData, err error) {
	slog.Debug("starting AIFF decode operation")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("AIFF parser panicked", "panic", r)
			audioData = nil
			err = ErrInvalidData
		}
	}()

	// go-audio/aiff needs a ReadSeeker
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read AIFF data", "error", err)
		return nil, ErrReadFailure
	}

	if len(data) == 0 {
		slog.Error("empty AIFF data")
		return nil, ErrInvalidData
	}

	decoder := aiff.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		slog.Error("invalid AIFF file format")
		return nil, ErrInvalidData
	}

	sampleRate := uint32(decoder.SampleRate)
	channels := uint32(decoder.NumChans)
	bitDepth := int(decoder.SampleBitDepth())

	if channels == 0 || sampleRate == 0 || bitDepth == 0 {
		slog.Error("invalid AIFF format parameters",
			"channels", channels,
			"sample_rate", sampleRate,
			"bit_depth", bitDepth)
		return nil, ErrInvalidData
	}

	var sampleFormat SampleFormat
	switch bitDepth {
	case 16:
		sampleFormat = FormatS16
	case 24:
		sampleFormat = FormatS24
	case 32:
		sampleFormat = FormatS32
	default:
		slog.Error("unsupported bit depth", "bits", bitDepth)
		return nil, ErrUnsupportedFormat
	}

	pcmBuffer, err := decoder.FullPCMBuffer()
	if err != nil {
		slog.Error("failed to read AIFF samples", "error", err)
		return nil, ErrReadFailure
	}

	if pcmBuffer == nil || len(pcmBuffer.Data) == 0 {
		slog.Error("no audio data found in AIFF file")
		return nil, ErrInvalidData
	}

	rawBytes, err := intBufferToBytes(pcmBuffer, sampleFormat)
	if err != nil {
		slog.Error("failed to convert PCM buffer to bytes", "error", err)
		return nil, ErrReadFailure
	}

	audioData = &AudioData{
		Samples:    rawBytes,
		Channels:   channels,
		SampleRate: sampleRate,
		Format:     sampleFormat,
	}

	slog.Debug("AIFF decode completed",
		"total_bytes", len(rawBytes),
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"format", sampleFormat,
		"duration_ms", audioData.Duration().Milliseconds())

	return audioData, nil
}

// intBufferToBytes packs go-audio integer samples as little-endian PCM
func intBufferToBytes(buf *audio.IntBuffer, format SampleFormat) ([]byte, error) {
	sampleLen := format.BytesPerSample()
	if sampleLen == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	out := make([]byte, len(buf.Data)*sampleLen)
	for i, sample := range buf.Data {
		dst := out[i*sampleLen:]
		for b := 0; b < sampleLen; b++ {
			dst[b] = byte(sample >> (8 * b))
		}
	}
	return out, nil
}
