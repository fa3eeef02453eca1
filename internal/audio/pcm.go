package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gopxl/beep/v2"
)

// pcmStreamer exposes AudioData as a beep.StreamSeeker. Several streamers may
// read the same AudioData concurrently; none of them modify it.
type pcmStreamer struct {
	data      *AudioData
	frameSize int
	sampleLen int
	frames    int
	pos       int
}

// Streamer returns a fresh cursor over the decoded data
func (a *AudioData) Streamer() beep.StreamSeeker {
	sampleLen := a.Format.BytesPerSample()
	return &pcmStreamer{
		data:      a,
		frameSize: int(a.Channels) * sampleLen,
		sampleLen: sampleLen,
		frames:    a.Frames(),
	}
}

func (s *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= s.frames {
		return 0, false
	}
	for n < len(samples) && s.pos < s.frames {
		frame := s.data.Samples[s.pos*s.frameSize:]
		left := decodeSample(frame, s.data.Format)
		right := left
		if s.data.Channels > 1 {
			right = decodeSample(frame[s.sampleLen:], s.data.Format)
		}
		samples[n] = [2]float64{left, right}
		n++
		s.pos++
	}
	return n, true
}

func (s *pcmStreamer) Err() error    { return nil }
func (s *pcmStreamer) Len() int      { return s.frames }
func (s *pcmStreamer) Position() int { return s.pos }

func (s *pcmStreamer) Seek(p int) error {
	if p < 0 || p > s.frames {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, s.frames)
	}
	s.pos = p
	return nil
}

// decodeSample converts one little-endian sample to [-1, 1]
func decodeSample(b []byte, format SampleFormat) float64 {
	switch format {
	case FormatU8:
		return (float64(b[0]) - 128) / 128
	case FormatS16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
	case FormatS24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608
	case FormatS32:
		return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
	case FormatF32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		return 0
	}
}

// encodeSample writes v, clipped to [-1, 1], as one little-endian sample
func encodeSample(dst []byte, v float64, format SampleFormat) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	switch format {
	case FormatU8:
		dst[0] = byte(int(v*127) + 128)
	case FormatS16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v*32767)))
	case FormatS24:
		i := int32(v * 8388607)
		dst[0], dst[1], dst[2] = byte(i), byte(i>>8), byte(i>>16)
	case FormatS32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v*2147483647)))
	case FormatF32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	}
}

// EncodeFrames writes stereo float frames into out using the given device
// layout and returns the number of bytes written. Mono output averages the
// two sides; extra output channels repeat the right side.
func EncodeFrames(out []byte, samples [][2]float64, format SampleFormat, channels int) int {
	sampleLen := format.BytesPerSample()
	frameSize := sampleLen * channels
	if frameSize == 0 {
		return 0
	}
	written := 0
	for _, frame := range samples {
		if written+frameSize > len(out) {
			break
		}
		dst := out[written : written+frameSize]
		if channels == 1 {
			encodeSample(dst, (frame[0]+frame[1])/2, format)
		} else {
			encodeSample(dst, frame[0], format)
			for ch := 1; ch < channels; ch++ {
				encodeSample(dst[ch*sampleLen:], frame[1], format)
			}
		}
		written += frameSize
	}
	return written
}

// audioDataFromStreamer drains s into 16-bit stereo PCM
func audioDataFromStreamer(s beep.Streamer, rate beep.SampleRate) (*AudioData, error) {
	buf := make([][2]float64, 512)
	var out []byte
	for {
		n, ok := s.Stream(buf)
		if n > 0 {
			chunk := make([]byte, n*4)
			EncodeFrames(chunk, buf[:n], FormatS16, 2)
			out = append(out, chunk...)
		}
		if !ok || n == 0 {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	if len(out) == 0 {
		return nil, ErrInvalidData
	}
	return &AudioData{
		Samples:    out,
		Channels:   2,
		SampleRate: uint32(rate),
		Format:     FormatS16,
	}, nil
}
