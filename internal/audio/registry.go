package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/midi"
	"github.com/spf13/afero"
)

// Format registration errors
var (
	ErrSoundFontRequired = errors.New("MIDI playback requires a SoundFont")
	ErrNoModDecoder      = fmt.Errorf("%w: no MOD tracker decoder available", ErrUnsupportedFormat)
)

// InitOptions carries what optional decoders need at registration time
type InitOptions struct {
	Fs         afero.Fs
	SoundFont  string
	SampleRate beep.SampleRate
}

// DecoderRegistry manages audio format decoders and provides format detection
type DecoderRegistry struct {
	decoders []Decoder
	streams  []StreamDecoder
}

// NewDecoderRegistry creates a new empty decoder registry
func NewDecoderRegistry() *DecoderRegistry {
	slog.Debug("creating new decoder registry")
	return &DecoderRegistry{
		decoders: make([]Decoder, 0),
		streams:  make([]StreamDecoder, 0),
	}
}

// NewDefaultRegistry creates a registry with the always-available WAV and
// AIFF decoders. Optional families are added by InitFormats.
func NewDefaultRegistry() *DecoderRegistry {
	registry := NewDecoderRegistry()
	registry.Register(NewWavDecoder())
	registry.Register(NewAiffDecoder())
	registry.RegisterStream(NewWavStreamDecoder())

	slog.Debug("default decoder registry initialized",
		"supported_formats", registry.GetSupportedFormats())

	return registry
}

// Register adds a whole-file decoder to the registry
func (r *DecoderRegistry) Register(decoder Decoder) {
	if decoder == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}
	r.decoders = append(r.decoders, decoder)
	slog.Debug("decoder registered", "format", decoder.FormatName(), "total_decoders", len(r.decoders))
}

// RegisterStream adds a streaming decoder to the registry
func (r *DecoderRegistry) RegisterStream(decoder StreamDecoder) {
	if decoder == nil {
		slog.Warn("attempted to register nil stream decoder")
		return
	}
	r.streams = append(r.streams, decoder)
	slog.Debug("stream decoder registered", "format", decoder.FormatName(), "total_streams", len(r.streams))
}

// InitFormats registers the decoder families named by flags. It returns the
// flags that registered and the error for each one that did not; a failed
// family never prevents the others from registering.
func (r *DecoderRegistry) InitFormats(flags FormatFlag, opts InitOptions) (FormatFlag, map[FormatFlag]error) {
	var initialized FormatFlag
	failures := make(map[FormatFlag]error)

	for _, flag := range flags.Each() {
		if err := r.initFormat(flag, opts); err != nil {
			failures[flag] = err
			slog.Warn("decoder family failed to initialize", "format", flag.String(), "error", err)
			continue
		}
		initialized |= flag
	}

	slog.Debug("decoder families initialized",
		"requested", flags.String(),
		"initialized", initialized.String(),
		"failed", len(failures))

	return initialized, failures
}

func (r *DecoderRegistry) initFormat(flag FormatFlag, opts InitOptions) error {
	switch flag {
	case FlagMP3:
		r.Register(NewMp3Decoder())
		r.RegisterStream(NewMp3StreamDecoder())
	case FlagOGG:
		ogg := NewOggDecoder()
		r.Register(ogg)
		r.RegisterStream(ogg)
	case FlagFLAC:
		flacDecoder := NewFlacDecoder()
		r.Register(flacDecoder)
		r.RegisterStream(flacDecoder)
	case FlagMIDI:
		soundFont, err := loadSoundFont(opts)
		if err != nil {
			return err
		}
		midiDecoder := NewMidiDecoder(soundFont, opts.SampleRate)
		r.Register(midiDecoder)
		r.RegisterStream(midiDecoder)
	case FlagMOD:
		return ErrNoModDecoder
	default:
		return fmt.Errorf("%w: flag %d", ErrUnsupportedFormat, flag)
	}
	return nil
}

func loadSoundFont(opts InitOptions) (*midi.SoundFont, error) {
	if opts.SoundFont == "" {
		return nil, ErrSoundFontRequired
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid MIDI render rate %d", opts.SampleRate)
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	f, err := fsys.Open(opts.SoundFont)
	if err != nil {
		return nil, fmt.Errorf("failed to open SoundFont: %w", err)
	}
	defer func() { _ = f.Close() }()

	soundFont, err := midi.NewSoundFont(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont %s: %w", opts.SoundFont, err)
	}
	slog.Debug("SoundFont loaded", "path", opts.SoundFont)
	return soundFont, nil
}

// GetDecoders returns all registered whole-file decoders
func (r *DecoderRegistry) GetDecoders() []Decoder {
	return r.decoders
}

// GetStreamDecoders returns all registered streaming decoders
func (r *DecoderRegistry) GetStreamDecoders() []StreamDecoder {
	return r.streams
}

// GetSupportedFormats returns a list of all supported format names
func (r *DecoderRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(r.decoders))
	for _, decoder := range r.decoders {
		formats = append(formats, decoder.FormatName())
	}
	return formats
}

// DetectFormat detects the appropriate decoder based on filename extension only
func (r *DecoderRegistry) DetectFormat(filename string) Decoder {
	if filename == "" {
		return nil
	}

	// First registered has priority
	for _, decoder := range r.decoders {
		if decoder.CanDecode(filename) {
			slog.Debug("format detected by extension", "filename", filename, "format", decoder.FormatName())
			return decoder
		}
	}

	slog.Debug("no decoder found for filename", "filename", filename)
	return nil
}

// DetectFormatWithContent detects format using magic bytes first, fallback to extension
func (r *DecoderRegistry) DetectFormatWithContent(filename string, reader io.Reader) Decoder {
	name := sniffFormat(reader)
	if name != "" {
		if decoder := r.findDecoderByFormat(name); decoder != nil {
			slog.Debug("format detected by magic bytes", "filename", filename, "format", name)
			return decoder
		}
	}

	slog.Debug("magic detection failed, falling back to extension", "filename", filename)
	return r.DetectFormat(filename)
}

// detectStream picks a streaming decoder for filename, reading the header
// from rs and rewinding it afterwards
func (r *DecoderRegistry) detectStream(filename string, rs io.ReadSeeker) StreamDecoder {
	name := sniffFormat(rs)
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		slog.Warn("failed to rewind after format detection", "filename", filename, "error", err)
		return nil
	}

	if name != "" {
		for _, decoder := range r.streams {
			if strings.EqualFold(decoder.FormatName(), name) {
				return decoder
			}
		}
	}
	for _, decoder := range r.streams {
		if decoder.CanDecode(filename) {
			return decoder
		}
	}
	return nil
}

// sniffFormat maps the magic bytes at the head of reader to a format name
func sniffFormat(reader io.Reader) string {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		slog.Debug("failed to read header for magic detection", "error", err)
		return ""
	}
	if n == 0 {
		return ""
	}

	detected := mimetype.Detect(buffer[:n])
	for m := detected; m != nil; m = m.Parent() {
		mimeStr := strings.ToLower(m.String())
		switch {
		case strings.Contains(mimeStr, "wav") || mimeStr == "audio/vnd.wave":
			return "WAV"
		case strings.Contains(mimeStr, "mpeg") || strings.Contains(mimeStr, "mp3"):
			return "MP3"
		case strings.Contains(mimeStr, "aiff"):
			return "AIFF"
		case strings.Contains(mimeStr, "flac"):
			return "FLAC"
		case strings.Contains(mimeStr, "ogg"):
			return "OGG"
		case strings.Contains(mimeStr, "midi"):
			return "MIDI"
		}
	}

	slog.Debug("unrecognized magic bytes", "mime_type", detected.String())
	return ""
}

// findDecoderByFormat finds a decoder by its format name
func (r *DecoderRegistry) findDecoderByFormat(formatName string) Decoder {
	for _, decoder := range r.decoders {
		if strings.EqualFold(decoder.FormatName(), formatName) {
			return decoder
		}
	}
	return nil
}

// DecodeFile decodes an audio file using the appropriate decoder
func (r *DecoderRegistry) DecodeFile(filename string, reader io.Reader) (*AudioData, error) {
	fullContent, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read file content for decode", "filename", filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}

	decoder := r.DetectFormatWithContent(filename, bytes.NewReader(fullContent))
	if decoder == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	audioData, err := decoder.Decode(bytes.NewReader(fullContent))
	if err != nil {
		slog.Error("decode operation failed",
			"filename", filename,
			"decoder_format", decoder.FormatName(),
			"error", err)
		return nil, err
	}

	slog.Debug("file decode completed",
		"filename", filename,
		"decoder_format", decoder.FormatName(),
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"data_size", len(audioData.Samples))

	return audioData, nil
}

// OpenStream opens rc for streamed playback. Formats without a streaming
// decoder are decoded whole and served from memory. On success the stream
// owns rc; on failure rc is closed.
func (r *DecoderRegistry) OpenStream(filename string, rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, string, error) {
	if decoder := r.detectStream(filename, rc); decoder != nil {
		stream, format, err := decoder.DecodeStream(rc)
		if err != nil {
			_ = rc.Close()
			return nil, beep.Format{}, "", fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return stream, format, decoder.FormatName(), nil
	}

	defer func() { _ = rc.Close() }()
	if _, err := rc.Seek(0, io.SeekStart); err != nil {
		return nil, beep.Format{}, "", fmt.Errorf("%w: %v", ErrReadFailure, err)
	}

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, beep.Format{}, "", fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	decoder := r.DetectFormatWithContent(filename, bytes.NewReader(content))
	if decoder == nil {
		return nil, beep.Format{}, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	data, err := decoder.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, beep.Format{}, "", err
	}

	slog.Debug("serving music from memory", "filename", filename, "format", decoder.FormatName())
	return memoryStream{data.Streamer()}, data.BeepFormat(), decoder.FormatName(), nil
}

type memoryStream struct {
	beep.StreamSeeker
}

func (memoryStream) Close() error { return nil }
