package audio

import (
	"fmt"
	"strings"
)

// SampleFormat identifies the encoding of raw PCM sample bytes
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatS16
	FormatS24
	FormatS32
	FormatF32
)

var sampleFormatNames = map[SampleFormat]string{
	FormatU8:  "u8",
	FormatS16: "s16",
	FormatS24: "s24",
	FormatS32: "s32",
	FormatF32: "f32",
}

func (f SampleFormat) String() string {
	if name, ok := sampleFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// BytesPerSample returns the size of one sample of one channel
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS24:
		return 3
	case FormatS32, FormatF32:
		return 4
	default:
		return 0
	}
}

// ParseSampleFormat parses a format name such as "s16" or "f32"
func ParseSampleFormat(name string) (SampleFormat, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for format, formatName := range sampleFormatNames {
		if formatName == lower {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: sample format %q", ErrUnsupportedFormat, name)
}

// FormatFlag is a bit set of optional decoder families requested at init time
type FormatFlag uint32

const (
	FlagFLAC FormatFlag = 1 << iota
	FlagMOD
	FlagMP3
	FlagOGG
	FlagMIDI
)

// DefaultFlags is the decoder set requested by a backend at startup
const DefaultFlags = FlagMP3 | FlagFLAC | FlagMOD | FlagOGG | FlagMIDI

var flagOrder = []FormatFlag{FlagMP3, FlagFLAC, FlagMOD, FlagOGG, FlagMIDI}

var flagNames = map[FormatFlag]string{
	FlagFLAC: "FLAC",
	FlagMOD:  "MOD",
	FlagMP3:  "MP3",
	FlagOGG:  "OGG",
	FlagMIDI: "MIDI",
}

// Each returns the individual flags contained in f in a stable order
func (f FormatFlag) Each() []FormatFlag {
	var flags []FormatFlag
	for _, flag := range flagOrder {
		if f&flag != 0 {
			flags = append(flags, flag)
		}
	}
	return flags
}

// Has reports whether every flag in other is set in f
func (f FormatFlag) Has(other FormatFlag) bool {
	return f&other == other
}

func (f FormatFlag) String() string {
	if f == 0 {
		return "NONE"
	}
	names := make([]string, 0, len(flagOrder))
	for _, flag := range f.Each() {
		names = append(names, flagNames[flag])
	}
	return strings.Join(names, "|")
}
