package mixer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func musicFiles(t *testing.T) map[string][]byte {
	return map[string][]byte{
		"one.wav": toneWAV(t, 200, testRate, 2000),
		"two.wav": toneWAV(t, 200, testRate, 4000),
	}
}

func TestLoadMusicMissingFile(t *testing.T) {
	_, m := newTestMixer(t, nil)

	music, err := m.LoadMusic("theme.ogg")
	assert.Nil(t, music)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "theme.ogg", decodeErr.Path)
}

func TestLoadMusicUnsupported(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{"notes.txt": []byte("just some words")})

	_, err := m.LoadMusic("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPlayMusicRunsToCompletion(t *testing.T) {
	b, m := newTestMixer(t, musicFiles(t))

	music, err := m.LoadMusic("one.wav")
	require.NoError(t, err)
	assert.Equal(t, testRate, music.SampleRate())

	require.NoError(t, m.PlayMusic(music, 1))
	assert.True(t, m.PlayingMusic())

	render(b, 399)
	assert.True(t, m.PlayingMusic())
	render(b, 2)
	assert.False(t, m.PlayingMusic())

	require.NoError(t, music.Close())
	assert.True(t, music.Closed())
}

func TestPlayMusicPreemptsCurrentTrack(t *testing.T) {
	b, m := newTestMixer(t, musicFiles(t))

	one, err := m.LoadMusic("one.wav")
	require.NoError(t, err)
	two, err := m.LoadMusic("two.wav")
	require.NoError(t, err)

	require.NoError(t, m.PlayMusic(one, -1))
	render(b, 64)
	require.NoError(t, m.PlayMusic(two, 0))

	// one's slot reference is gone, so closing the handle closes its stream
	require.NoError(t, one.Close())
	assert.True(t, one.Closed())

	// two keeps playing after its handle is closed
	require.NoError(t, two.Close())
	assert.False(t, two.Closed())
	assert.True(t, m.PlayingMusic())

	m.HaltMusic()
	assert.False(t, m.PlayingMusic())
	assert.True(t, two.Closed())
}

func TestPlayMusicOnlyOneTrackAudible(t *testing.T) {
	b, m := newTestMixer(t, musicFiles(t))

	one, err := m.LoadMusic("one.wav")
	require.NoError(t, err)
	two, err := m.LoadMusic("two.wav")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = one.Close()
		_ = two.Close()
	})

	require.NoError(t, m.PlayMusic(one, 0))
	alone := render(b, 64)[0][0]
	require.NotZero(t, alone)

	require.NoError(t, m.PlayMusic(two, 0))
	mixed := render(b, 64)[0][0]
	assert.InDelta(t, alone*2, mixed, 1e-6, "only the second track is heard")
}

func TestReplayingSameTrackRestarts(t *testing.T) {
	b, m := newTestMixer(t, musicFiles(t))

	one, err := m.LoadMusic("one.wav")
	require.NoError(t, err)

	require.NoError(t, m.PlayMusic(one, 0))
	render(b, 150)
	require.NoError(t, m.PlayMusic(one, 0))

	render(b, 150)
	assert.True(t, m.PlayingMusic(), "second play started from the beginning")
	assert.False(t, one.Closed())

	render(b, 64)
	assert.False(t, m.PlayingMusic())
	require.NoError(t, one.Close())
	assert.True(t, one.Closed())
}

func TestMusicCloseIsIdempotent(t *testing.T) {
	_, m := newTestMixer(t, musicFiles(t))

	music, err := m.LoadMusic("one.wav")
	require.NoError(t, err)

	require.NoError(t, music.Close())
	require.NoError(t, music.Close())
	assert.True(t, music.Closed())

	err = m.PlayMusic(music, 0)
	var playErr *PlaybackError
	require.True(t, errors.As(err, &playErr))
	assert.ErrorIs(t, err, ErrResourceClosed)
}

func TestPlayMusicRejections(t *testing.T) {
	_, m := newTestMixer(t, musicFiles(t))

	music, err := m.LoadMusic("one.wav")
	require.NoError(t, err)
	t.Cleanup(func() { _ = music.Close() })

	assert.ErrorIs(t, m.PlayMusic(nil, 0), ErrNilResource)
	assert.ErrorIs(t, m.PlayMusic(music, -3), ErrInvalidLoops)
	assert.False(t, m.PlayingMusic())
}

func TestMusicVolumeScalesOutput(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{"long.wav": toneWAV(t, 2000, testRate, 16000)})

	music, err := m.LoadMusic("long.wav")
	require.NoError(t, err)
	t.Cleanup(func() { _ = music.Close() })

	require.NoError(t, m.PlayMusic(music, 0))
	full := render(b, 64)[0][0]

	m.VolumeMusic(MaxVolume / 4)
	quarter := render(b, 64)[0][0]
	assert.InDelta(t, full/4, quarter, 1e-6)
}
