package mixer

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

func TestLoadWAVMissingFile(t *testing.T) {
	_, m := newTestMixer(t, nil)

	chunk, err := m.LoadWAV("nope.wav")
	assert.Nil(t, chunk)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "nope.wav", decodeErr.Path)
	assert.Equal(t, "file not found", decodeErr.Reason)
	assert.Equal(t, "couldn't open 'nope.wav': file not found", err.Error())
}

func TestLoadWAVCorruptFile(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{"bad.wav": []byte("RIFF not really")})

	_, err := m.LoadWAV("bad.wav")
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestLoadWAVTruncatedHeader(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{"short.wav": []byte("RIFF")})

	_, err := m.LoadWAV("short.wav")
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %v", err)
}

func TestLoadWAVEightBit(t *testing.T) {
	var buf bytes.Buffer
	w := wav.NewWriter(&buf, 300, 1, testRate, 8)
	samples := make([]wav.Sample, 300)
	for i := range samples {
		samples[i].Values = [2]int{192, 192}
	}
	require.NoError(t, w.WriteSamples(samples))

	_, m := newTestMixer(t, map[string][]byte{"u8.wav": buf.Bytes()})

	chunk, err := m.LoadWAV("u8.wav")
	require.NoError(t, err)
	assert.Equal(t, 300, chunk.Len())
	assert.Equal(t, "WAV", chunk.Format())
}

func TestLoadWAVResamplesToDeviceRate(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{
		"native.wav": toneWAV(t, 441, testRate, 1000),
		"half.wav":   toneWAV(t, 441, testRate/2, 1000),
	})

	native, err := m.LoadWAV("native.wav")
	require.NoError(t, err)
	assert.Equal(t, 441, native.Len())
	assert.Equal(t, "WAV", native.Format())

	half, err := m.LoadSound("half.wav")
	require.NoError(t, err)
	assert.InDelta(t, 882, half.Len(), 4)
	assert.InDelta(t, (2 * native.Duration()).Seconds(), half.Duration().Seconds(), 0.001)
}

func TestPlayChannelOnceReturnsToIdle(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})

	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	used, err := m.PlayChannel(chunk, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, used)
	assert.True(t, m.Playing(3))

	render(b, 64)
	assert.True(t, m.Playing(3))

	render(b, 64)
	assert.False(t, m.Playing(3))
	assert.Equal(t, 0, m.PlayingCount())
}

func TestPlayChannelLoops(t *testing.T) {
	tests := []struct {
		name        string
		loops       int
		framesAlive int
	}{
		{"once", 0, 100},
		{"three passes", 2, 300},
		{"five passes", 4, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
			chunk, err := m.LoadWAV("beep.wav")
			require.NoError(t, err)

			_, err = m.PlayChannel(chunk, 0, tt.loops)
			require.NoError(t, err)

			render(b, tt.framesAlive-1)
			assert.True(t, m.Playing(0), "still playing before the last frame")

			render(b, 2)
			assert.False(t, m.Playing(0), "idle after the last pass")
		})
	}
}

func TestPlayChannelInfiniteLoopUntilHalted(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	_, err = m.PlayChannel(chunk, 5, -1)
	require.NoError(t, err)

	render(b, 10000)
	assert.True(t, m.Playing(5))

	m.HaltChannel(5)
	assert.False(t, m.Playing(5))
}

func TestPlayChannelRejections(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	tests := []struct {
		name    string
		chunk   *Chunk
		channel int
		loops   int
		want    error
	}{
		{"channel past allocation", chunk, DefaultMixChannels, 0, ErrInvalidChannel},
		{"negative channel", chunk, -2, 0, ErrInvalidChannel},
		{"nil chunk", nil, 0, 0, ErrNilResource},
		{"bad loop count", chunk, 0, -2, ErrInvalidLoops},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.PlayChannel(tt.chunk, tt.channel, tt.loops)

			var playErr *PlaybackError
			require.True(t, errors.As(err, &playErr))
			assert.Equal(t, "play_channel", playErr.Op)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, m.PlayingCount())
}

func TestPlayChannelAnyChannel(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	require.Equal(t, 2, m.AllocateChannels(2))

	first, err := m.PlayChannel(chunk, -1, -1)
	require.NoError(t, err)
	second, err := m.PlayChannel(chunk, -1, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	_, err = m.PlayChannel(chunk, -1, 0)
	assert.ErrorIs(t, err, ErrNoFreeChannel)
}

func TestPlayChannelReplacesBusyChannel(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{
		"long.wav":  toneWAV(t, 1000, testRate, 1000),
		"short.wav": toneWAV(t, 10, testRate, 1000),
	})
	long, err := m.LoadWAV("long.wav")
	require.NoError(t, err)
	short, err := m.LoadWAV("short.wav")
	require.NoError(t, err)

	_, err = m.PlayChannel(long, 0, 0)
	require.NoError(t, err)
	_, err = m.PlayChannel(short, 0, 0)
	require.NoError(t, err)

	render(b, 20)
	assert.False(t, m.Playing(0), "the short sample replaced the long one")
}

func TestSharedChunkPlaysOnManyChannels(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	for ch := 0; ch < 4; ch++ {
		_, err := m.PlayChannel(chunk, ch, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, m.PlayingCount())

	// halting one playback leaves the others and the chunk intact
	m.HaltChannel(1)
	assert.Equal(t, 3, m.PlayingCount())
	assert.Equal(t, 100, chunk.Len())

	render(b, 128)
	assert.Equal(t, 0, m.PlayingCount())

	_, err = m.PlayChannel(chunk, 1, 0)
	assert.NoError(t, err)
}

func TestHaltChannelNoOps(t *testing.T) {
	_, m := newTestMixer(t, nil)

	assert.NotPanics(t, func() {
		m.HaltChannel(0)
		m.HaltChannel(0)
		m.HaltChannel(999)
		m.HaltChannel(-7)
		m.HaltMusic()
		m.HaltMusic()
	})
}

func TestHaltAllChannels(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	for ch := 0; ch < 3; ch++ {
		_, err := m.PlayChannel(chunk, ch, -1)
		require.NoError(t, err)
	}
	m.HaltChannel(-1)
	assert.Equal(t, 0, m.PlayingCount())
}

func TestVolumeChunkRoundTrip(t *testing.T) {
	_, m := newTestMixer(t, nil)

	assert.Equal(t, MaxVolume, m.VolumeChunk(0, 64))
	assert.Equal(t, 64, m.VolumeChunk(0, 32))
	assert.Equal(t, 32, m.VolumeChunk(0, -1), "negative volume queries")
	assert.Equal(t, 32, m.VolumeChunk(0, 500))
	assert.Equal(t, MaxVolume, m.VolumeChunk(0, -1), "values above the maximum clamp")

	assert.Equal(t, 0, m.VolumeChunk(DefaultMixChannels, 10), "out of range channel")
	assert.Equal(t, 0, m.VolumeChunk(-5, 10))
}

func TestVolumeChunkAllChannels(t *testing.T) {
	_, m := newTestMixer(t, nil)
	m.AllocateChannels(4)

	m.VolumeChunk(0, 0)
	assert.Equal(t, (0+3*MaxVolume)/4, m.VolumeChunk(-1, 40))
	for ch := 0; ch < 4; ch++ {
		assert.Equal(t, 40, m.VolumeChunk(ch, -1))
	}
}

func TestVolumeChunkScalesOutput(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 1000, testRate, 16000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	_, err = m.PlayChannel(chunk, 0, 0)
	require.NoError(t, err)
	full := render(b, 64)[0][0]
	require.NotZero(t, full)

	m.VolumeChunk(0, MaxVolume/2)
	half := render(b, 64)[0][0]
	assert.InDelta(t, full/2, half, 1e-6)

	m.VolumeChunk(0, 0)
	assert.Zero(t, render(b, 64)[0][0])
}

func TestVolumeAppliesToLaterPlayback(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 1000, testRate, 16000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	m.VolumeChunk(2, 0)
	_, err = m.PlayChannel(chunk, 2, 0)
	require.NoError(t, err)
	assert.Zero(t, render(b, 64)[0][0])
}

func TestVolumeMusicRoundTrip(t *testing.T) {
	_, m := newTestMixer(t, nil)

	assert.Equal(t, MaxVolume, m.VolumeMusic(100))
	assert.Equal(t, 100, m.VolumeMusic(-1))
	assert.Equal(t, 100, m.VolumeMusic(1000))
	assert.Equal(t, MaxVolume, m.VolumeMusic(0))
	assert.Equal(t, 0, m.VolumeMusic(-1))
}

func TestAllocateChannelsShrinkHalts(t *testing.T) {
	_, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	assert.Equal(t, DefaultMixChannels, m.AllocatedChannels())
	_, err = m.PlayChannel(chunk, 10, -1)
	require.NoError(t, err)

	assert.Equal(t, 8, m.AllocateChannels(8))
	assert.Equal(t, 0, m.PlayingCount())
	assert.False(t, m.Playing(10))

	assert.Equal(t, 12, m.AllocateChannels(12))
	assert.Equal(t, MaxVolume, m.VolumeChunk(11, -1))
}

func TestSessionsShareBackend(t *testing.T) {
	b, first := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	second, err := b.NewMixer()
	require.NoError(t, err)

	chunk, err := first.LoadWAV("beep.wav")
	require.NoError(t, err)
	_, err = second.PlayChannel(chunk, 0, -1)
	require.NoError(t, err)

	assert.True(t, first.Playing(0))
	assert.Same(t, first.Backend(), second.Backend())
}

func TestConcurrentPlayback(t *testing.T) {
	b, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)})
	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for ch := 0; ch < DefaultMixChannels; ch++ {
		wg.Add(1)
		go func(ch int) {
			defer wg.Done()
			_, err := m.PlayChannel(chunk, ch, 1)
			assert.NoError(t, err)
			m.VolumeChunk(ch, 64)
		}(ch)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		render(b, 1024)
	}()
	wg.Wait()

	render(b, 256)
	assert.Equal(t, 0, m.PlayingCount())
}

func TestObserverReceivesEvents(t *testing.T) {
	rec := &recorder{}
	_, m := newTestMixer(t, map[string][]byte{"beep.wav": toneWAV(t, 100, testRate, 1000)}, WithObserver(rec))

	chunk, err := m.LoadWAV("beep.wav")
	require.NoError(t, err)
	_, _ = m.LoadWAV("missing.wav")
	_, err = m.PlayChannel(chunk, 1, 2)
	require.NoError(t, err)
	m.VolumeChunk(1, 10)
	m.HaltChannel(1)

	assert.Equal(t, []Op{OpLoadSound, OpLoadSound, OpPlayChannel, OpVolumeChunk, OpHaltChannel}, rec.ops())

	assert.Nil(t, rec.events[0].Err)
	assert.Error(t, rec.events[1].Err)
	assert.Equal(t, "missing.wav", rec.events[1].Path)

	play := rec.events[2]
	assert.Equal(t, "beep.wav", play.Path)
	assert.Equal(t, 1, play.Channel)
	assert.Equal(t, 2, play.Loops)
	assert.False(t, play.Time.IsZero())

	vol := rec.events[3]
	assert.Equal(t, 10, vol.Volume)
	assert.Equal(t, MaxVolume, vol.Previous)
}
