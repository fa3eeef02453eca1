package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/youpy/go-wav"
)

// WavDecoder handles WAV audio format decoding
type WavDecoder struct{}

// NewWavDecoder creates a new WAV decoder instance
func NewWavDecoder() *WavDecoder {
	slog.Debug("creating new WAV decoder instance")
	return &WavDecoder{}
}

// Decode reads WAV audio data from reader and returns decoded PCM data
func (d *WavDecoder) Decode(reader io.Reader) (audioData *AudioData, err error) {
	slog.Debug("starting WAV decode operation")

	// go-riff panics on truncated chunks instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			slog.Error("WAV parser panicked", "panic", r)
			audioData = nil
			err = ErrInvalidData
		}
	}()

	// youpy/go-wav needs random access, so buffer everything first
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read WAV data", "error", err)
		return nil, ErrReadFailure
	}

	if len(data) == 0 {
		slog.Error("empty WAV data")
		return nil, ErrInvalidData
	}

	wavReader := wav.NewReader(bytes.NewReader(data))

	format, err := wavReader.Format()
	if err != nil {
		slog.Error("failed to read WAV format", "error", err)
		return nil, ErrInvalidData
	}

	slog.Debug("WAV format detected",
		"sample_rate", format.SampleRate,
		"channels", format.NumChannels,
		"bits_per_sample", format.BitsPerSample)

	if format.NumChannels == 0 || format.SampleRate == 0 {
		slog.Error("invalid WAV format parameters",
			"channels", format.NumChannels,
			"sample_rate", format.SampleRate)
		return nil, ErrInvalidData
	}

	var sampleFormat SampleFormat
	switch format.BitsPerSample {
	case 8:
		sampleFormat = FormatU8
	case 16:
		sampleFormat = FormatS16
	case 24:
		sampleFormat = FormatS24
	case 32:
		sampleFormat = FormatS32
	default:
		slog.Error("unsupported bit depth", "bits", format.BitsPerSample)
		return nil, ErrUnsupportedFormat
	}

	channels := int(format.NumChannels)
	if channels > 2 {
		// wav.Sample only carries two channel values
		slog.Error("unsupported WAV channel count", "channels", channels)
		return nil, ErrUnsupportedFormat
	}
	sampleLen := sampleFormat.BytesPerSample()

	var rawBytes []byte
	totalFrames := 0
	for {
		samples, err := wavReader.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Error("failed to read WAV samples", "error", err)
			return nil, ErrReadFailure
		}
		if len(samples) == 0 {
			break
		}

		frame := make([]byte, sampleLen)
		for _, sample := range samples {
			for ch := 0; ch < channels; ch++ {
				val := sample.Values[ch]
				for i := 0; i < sampleLen; i++ {
					frame[i] = byte(val >> (8 * i))
				}
				rawBytes = append(rawBytes, frame...)
			}
		}
		totalFrames += len(samples)
	}

	if totalFrames == 0 {
		slog.Error("no audio data found in WAV file")
		return nil, ErrInvalidData
	}

	audioData = &AudioData{
		Samples:    rawBytes,
		Channels:   uint32(channels),
		SampleRate: format.SampleRate,
		Format:     sampleFormat,
	}

	slog.Debug("WAV decode completed",
		"total_bytes", len(rawBytes),
		"total_frames", totalFrames,
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"format", sampleFormat,
		"duration_ms", audioData.Duration().Milliseconds())

	return audioData, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *WavDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave")
}

// FormatName returns the name of the format this decoder handles
func (d *WavDecoder) FormatName() string {
	return "WAV"
}
