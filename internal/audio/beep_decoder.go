package audio

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/midi"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

type beepDecodeFunc func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error)

// BeepDecoder adapts one of beep's format packages. It serves both as a
// streaming decoder for music and as a whole-file decoder for chunks.
type BeepDecoder struct {
	name       string
	extensions []string
	decode     beepDecodeFunc
}

// NewOggDecoder decodes Ogg Vorbis through beep/vorbis
func NewOggDecoder() *BeepDecoder {
	return &BeepDecoder{
		name:       "OGG",
		extensions: []string{".ogg", ".oga"},
		decode: func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(rc)
		},
	}
}

// NewFlacDecoder decodes FLAC through beep/flac
func NewFlacDecoder() *BeepDecoder {
	return &BeepDecoder{
		name:       "FLAC",
		extensions: []string{".flac"},
		decode: func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return flac.Decode(rc)
		},
	}
}

// NewMidiDecoder renders MIDI through beep/midi with the given SoundFont
func NewMidiDecoder(soundFont *midi.SoundFont, rate beep.SampleRate) *BeepDecoder {
	return &BeepDecoder{
		name:       "MIDI",
		extensions: []string{".mid", ".midi"},
		decode: func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return midi.Decode(rc, soundFont, rate)
		},
	}
}

// NewWavStreamDecoder streams WAV through beep/wav
func NewWavStreamDecoder() *BeepDecoder {
	return &BeepDecoder{
		name:       "WAV",
		extensions: []string{".wav", ".wave"},
		decode: func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return wav.Decode(rc)
		},
	}
}

// NewMp3StreamDecoder streams MP3 through beep/mp3
func NewMp3StreamDecoder() *BeepDecoder {
	return &BeepDecoder{
		name:       "MP3",
		extensions: []string{".mp3", ".mpeg"},
		decode: func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(rc)
		},
	}
}

// FormatName returns the name of the format this decoder handles
func (d *BeepDecoder) FormatName() string {
	return d.name
}

// CanDecode checks the filename extension
func (d *BeepDecoder) CanDecode(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, candidate := range d.extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// DecodeStream opens rc for incremental decoding
func (d *BeepDecoder) DecodeStream(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	stream, format, err := d.decode(rc)
	if err != nil {
		slog.Error("stream decode failed", "format", d.name, "error", err)
		return nil, beep.Format{}, err
	}
	slog.Debug("stream opened",
		"format", d.name,
		"sample_rate", format.SampleRate,
		"channels", format.NumChannels,
		"frames", stream.Len())
	return stream, format, nil
}

// Decode renders the whole stream into 16-bit stereo PCM
func (d *BeepDecoder) Decode(reader io.Reader) (*AudioData, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	stream, format, err := d.decode(nopSeekCloser{bytes.NewReader(data)})
	if err != nil {
		slog.Error("decode failed", "format", d.name, "error", err)
		return nil, ErrInvalidData
	}
	defer func() { _ = stream.Close() }()

	return audioDataFromStreamer(stream, format.SampleRate)
}

type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }
