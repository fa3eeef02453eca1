package mixer

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

const testRate = 44100

// toneWAV builds a stereo 16-bit WAV holding frames copies of a constant
// sample value
func toneWAV(t *testing.T, frames int, rate uint32, value int) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(frames), 2, rate, 16)
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values = [2]int{value, value}
	}
	require.NoError(t, w.WriteSamples(samples))
	return buf.Bytes()
}

// newTestMixer brings up an isolated backend on the null driver over an
// in-memory filesystem holding files
func newTestMixer(t *testing.T, files map[string][]byte, opts ...Option) (*Backend, *Mixer) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
	}

	b := NewBackend(Config{Driver: "null", Frequency: testRate, Fs: fs})
	t.Cleanup(func() { _ = b.Close() })

	m, err := b.NewMixer(opts...)
	require.NoError(t, err)
	return b, m
}

// render pulls frames from the backend in device-sized blocks and returns
// the last block
func render(b *Backend, frames int) [][2]float64 {
	block := make([][2]float64, 64)
	for frames > 0 {
		n := len(block)
		if frames < n {
			n = frames
		}
		b.Render(block[:n])
		frames -= n
	}
	return block
}

// recorder collects observer events
type recorder struct {
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) ops() []Op {
	ops := make([]Op, len(r.events))
	for i, e := range r.events {
		ops[i] = e.Op
	}
	return ops
}
