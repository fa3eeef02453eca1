package mixer

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/ctoth/mixkit/internal/audio"
)

// Defaults used by the process-wide backend
const (
	DefaultFrequency   = 44100
	DefaultFormat      = "s16"
	DefaultChannels    = 2
	DefaultChunkSize   = 1024
	DefaultMixChannels = 16

	// MaxVolume is the loudest channel or music volume
	MaxVolume = 128
)

// FormatFlag selects optional decoder families
type FormatFlag = audio.FormatFlag

// Decoder families that can be requested at init time
const (
	FormatFLAC = audio.FlagFLAC
	FormatMOD  = audio.FlagMOD
	FormatMP3  = audio.FlagMP3
	FormatOGG  = audio.FlagOGG
	FormatMIDI = audio.FlagMIDI

	DefaultFormats = audio.DefaultFlags
)

// Config is the output device request and decoder setup for a Backend
type Config struct {
	// Driver selects the output driver: auto, malgo, oto or null
	Driver string
	// Frequency is the requested output sample rate in Hz
	Frequency int
	// Format is the requested sample format: u8, s16, s24, s32 or f32
	Format string
	// Channels is the requested output layout: 1 (mono) or 2 (stereo)
	Channels int
	// ChunkSize is the device buffer size in frames
	ChunkSize int
	// MixChannels is the number of sample playback lanes allocated at init
	MixChannels int
	// Formats lists the optional decoder families to initialize
	Formats FormatFlag
	// SoundFont is the path of the SoundFont used to render MIDI
	SoundFont string
	// Fs is the filesystem resources and the SoundFont are read from
	Fs afero.Fs
}

// DefaultConfig returns the configuration the process-wide backend starts with
func DefaultConfig() Config {
	return Config{
		Driver:      "auto",
		Frequency:   DefaultFrequency,
		Format:      DefaultFormat,
		Channels:    DefaultChannels,
		ChunkSize:   DefaultChunkSize,
		MixChannels: DefaultMixChannels,
		Formats:     DefaultFormats,
		Fs:          afero.NewOsFs(),
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Driver == "" {
		c.Driver = d.Driver
	}
	if c.Frequency == 0 {
		c.Frequency = d.Frequency
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.Channels == 0 {
		c.Channels = d.Channels
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MixChannels == 0 {
		c.MixChannels = d.MixChannels
	}
	if c.Fs == nil {
		c.Fs = d.Fs
	}
	return c
}

// deviceSpec validates the config and converts it to a device request
func (c Config) deviceSpec() (audio.DeviceSpec, error) {
	var problems []string

	if !audio.IsValidDriverType(c.Driver) {
		problems = append(problems, fmt.Sprintf("invalid driver %q, must be one of: %s",
			c.Driver, strings.Join(audio.SupportedDrivers(), ", ")))
	}
	format, err := audio.ParseSampleFormat(c.Format)
	if err != nil {
		problems = append(problems, err.Error())
	}
	if c.Frequency <= 0 {
		problems = append(problems, fmt.Sprintf("frequency must be positive, got %d", c.Frequency))
	}
	if c.Channels != 1 && c.Channels != 2 {
		problems = append(problems, fmt.Sprintf("channels must be 1 or 2, got %d", c.Channels))
	}
	if c.ChunkSize <= 0 {
		problems = append(problems, fmt.Sprintf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.MixChannels < 0 {
		problems = append(problems, fmt.Sprintf("mix channels must be >= 0, got %d", c.MixChannels))
	}

	if len(problems) > 0 {
		return audio.DeviceSpec{}, fmt.Errorf("invalid backend configuration: %s", strings.Join(problems, "; "))
	}

	return audio.DeviceSpec{
		SampleRate:   uint32(c.Frequency),
		Format:       format,
		Channels:     uint32(c.Channels),
		BufferFrames: uint32(c.ChunkSize),
	}, nil
}

// Spec is the output configuration negotiated with the device
type Spec struct {
	Frequency    int
	Format       string
	Channels     int
	BufferFrames int
}

func (s Spec) String() string {
	return fmt.Sprintf("%d Hz, %s, %d channel(s), %d frame buffer", s.Frequency, s.Format, s.Channels, s.BufferFrames)
}
