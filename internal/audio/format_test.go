package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSampleFormat(t *testing.T) {
	for _, name := range []string{"u8", "s16", "s24", "s32", "f32"} {
		format, err := ParseSampleFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, format.String())
	}

	format, err := ParseSampleFormat(" F32 ")
	require.NoError(t, err)
	assert.Equal(t, FormatF32, format)

	_, err = ParseSampleFormat("s8")
	assert.Error(t, err)
	assert.Equal(t, "unknown", FormatUnknown.String())
}

func TestBytesPerSample(t *testing.T) {
	assert.Equal(t, 1, FormatU8.BytesPerSample())
	assert.Equal(t, 2, FormatS16.BytesPerSample())
	assert.Equal(t, 3, FormatS24.BytesPerSample())
	assert.Equal(t, 4, FormatS32.BytesPerSample())
	assert.Equal(t, 4, FormatF32.BytesPerSample())
	assert.Equal(t, 0, FormatUnknown.BytesPerSample())
}

func TestFormatFlags(t *testing.T) {
	flags := FlagOGG | FlagMP3 | FlagMIDI

	assert.Equal(t, []FormatFlag{FlagMP3, FlagOGG, FlagMIDI}, flags.Each())
	assert.Equal(t, "MP3|OGG|MIDI", flags.String())
	assert.True(t, flags.Has(FlagMP3|FlagOGG))
	assert.False(t, flags.Has(FlagMP3|FlagFLAC))
	assert.Equal(t, "NONE", FormatFlag(0).String())
	assert.Len(t, DefaultFlags.Each(), 5)
}
