package mixer

import (
	"log/slog"
	"time"

	"github.com/gopxl/beep/v2"
)

// Chunk is a fully decoded sound held in memory at the device rate. A Chunk
// may play on any number of channels at once; each playback reads the
// shared samples through its own cursor, so the samples stay alive for as
// long as the Chunk or any of its playbacks is reachable.
type Chunk struct {
	path   string
	format string
	buffer *beep.Buffer
}

// Path returns the file the chunk was loaded from
func (c *Chunk) Path() string {
	return c.path
}

// Format returns the name of the decoder that produced the chunk
func (c *Chunk) Format() string {
	return c.format
}

// Len returns the chunk length in sample frames at the device rate
func (c *Chunk) Len() int {
	return c.buffer.Len()
}

// Duration returns the length of one pass
func (c *Chunk) Duration() time.Duration {
	return c.buffer.Format().SampleRate.D(c.buffer.Len())
}

func (c *Chunk) pass() (beep.Streamer, error) {
	return c.buffer.Streamer(0, c.buffer.Len()), nil
}

// loadChunk decodes path completely and converts it to the device rate
func (b *Backend) loadChunk(path string) (*Chunk, error) {
	file, err := b.fs.Open(path)
	if err != nil {
		return nil, newDecodeError(path, err)
	}
	defer func() { _ = file.Close() }()

	data, err := b.registry.DecodeFile(path, file)
	if err != nil {
		return nil, newDecodeError(path, err)
	}

	rate := b.engine.sampleRate()
	var source beep.Streamer = data.Streamer()
	srcRate := beep.SampleRate(data.SampleRate)
	if srcRate != rate {
		slog.Debug("resampling chunk to device rate",
			"path", path,
			"from", int(srcRate),
			"to", int(rate))
		source = beep.Resample(resampleQuality, srcRate, rate, source)
	}

	buffer := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buffer.Append(source)

	format := "pcm"
	if decoder := b.registry.DetectFormat(path); decoder != nil {
		format = decoder.FormatName()
	}

	return &Chunk{path: path, format: format, buffer: buffer}, nil
}
