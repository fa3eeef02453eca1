package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/youpy/go-wav"
)

// makeWAV builds a 16-bit WAV with frames samples per channel. Left carries
// value, right carries -value.
func makeWAV(t *testing.T, rate uint32, channels uint16, frames int, value int) []byte {
	t.Helper()
	return makeWAVBits(t, rate, channels, 16, frames, value, -value)
}

// makeWAVBits builds a WAV of any bit depth with constant left and right
// sample values, written as-is.
func makeWAVBits(t *testing.T, rate uint32, channels, bits uint16, frames int, left, right int) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(frames), channels, rate, bits)
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values = [2]int{left, right}
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatalf("failed to write WAV samples: %v", err)
	}
	return buf.Bytes()
}

// makeAIFF builds a silent AIFF file: FORM header, COMM chunk and SSND chunk
func makeAIFF(rate, channels, bitDepth, frames int) []byte {
	dataSize := frames * channels * bitDepth / 8

	comm := make([]byte, 18)
	binary.BigEndian.PutUint16(comm[0:], uint16(channels))
	binary.BigEndian.PutUint32(comm[2:], uint32(frames))
	binary.BigEndian.PutUint16(comm[6:], uint16(bitDepth))
	copy(comm[8:], extendedFloat(rate))

	ssnd := make([]byte, 8+dataSize)

	var buf bytes.Buffer
	buf.WriteString("FORM")
	_ = binary.Write(&buf, binary.BigEndian, uint32(4+8+len(comm)+8+len(ssnd)))
	buf.WriteString("AIFF")
	buf.WriteString("COMM")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(comm)))
	buf.Write(comm)
	buf.WriteString("SSND")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ssnd)))
	buf.Write(ssnd)
	return buf.Bytes()
}

// extendedFloat encodes a positive integer rate as an 80-bit IEEE 754
// extended float
func extendedFloat(rate int) []byte {
	out := make([]byte, 10)
	if rate <= 0 {
		return out
	}
	exp := 0
	for v := rate; v > 1; v >>= 1 {
		exp++
	}
	binary.BigEndian.PutUint16(out[0:], uint16(16383+exp))
	binary.BigEndian.PutUint64(out[2:], uint64(rate)<<(63-exp))
	return out
}

func riffChunk(id string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func riffList(kind string, chunks ...[]byte) []byte {
	body := []byte(kind)
	for _, c := range chunks {
		body = append(body, c...)
	}
	return riffChunk("LIST", body)
}

func le(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func sfName(name string) [20]byte {
	var out [20]byte
	copy(out[:], name)
	return out
}

// makeSoundFont builds a one-preset SoundFont 2 bank: preset 0 in bank 0
// plays a looped sine sample through a single instrument.
func makeSoundFont() []byte {
	const sampleLen = 100
	// every sample is followed by 46 zero points
	wave := make([]int16, sampleLen+46)
	for i := 0; i < sampleLen; i++ {
		wave[i] = int16(8000 * math.Sin(2*math.Pi*float64(i)/20))
	}

	info := riffList("INFO",
		riffChunk("ifil", le(uint16(2), uint16(1))),
		riffChunk("isng", []byte("EMU8000\x00")),
		riffChunk("INAM", []byte("mixkit\x00\x00")),
	)
	sdta := riffList("sdta", riffChunk("smpl", le(wave)))

	phdr := append(
		le(sfName("Tone"), uint16(0), uint16(0), uint16(0), uint32(0), uint32(0), uint32(0)),
		le(sfName("EOP"), uint16(0), uint16(0), uint16(1), uint32(0), uint32(0), uint32(0))...)
	inst := append(le(sfName("Tone"), uint16(0)), le(sfName("EOI"), uint16(1))...)
	shdr := append(
		le(sfName("Sine"), uint32(0), uint32(sampleLen), uint32(20), uint32(80),
			uint32(22050), uint8(60), int8(0), uint16(0), uint16(1)),
		make([]byte, 46)...)
	pdta := riffList("pdta",
		riffChunk("phdr", phdr),
		riffChunk("pbag", le(uint16(0), uint16(0), uint16(1), uint16(0))),
		riffChunk("pmod", make([]byte, 10)),
		// instrument 0
		riffChunk("pgen", le(uint16(41), uint16(0), uint16(0), uint16(0))),
		riffChunk("inst", inst),
		riffChunk("ibag", le(uint16(0), uint16(0), uint16(2), uint16(0))),
		riffChunk("imod", make([]byte, 10)),
		// sampleModes=loop, then sampleID 0
		riffChunk("igen", le(uint16(54), uint16(1), uint16(53), uint16(0), uint16(0), uint16(0))),
		riffChunk("shdr", shdr),
	)

	body := append([]byte("sfbk"), info...)
	body = append(body, sdta...)
	body = append(body, pdta...)
	return riffChunk("RIFF", body)
}

// makeMIDI builds a format 0 file at 120 bpm that holds middle C for one
// quarter note (half a second).
func makeMIDI() []byte {
	track := []byte{
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 500000us
		0x00, 0xC0, 0x00, // program 0
		0x00, 0x90, 0x3C, 0x64, // note on
		0x60, 0x80, 0x3C, 0x40, // note off after 96 ticks
		0x00, 0xFF, 0x2F, 0x00, // end of track
	}

	var buf bytes.Buffer
	buf.WriteString("MThd")
	_ = binary.Write(&buf, binary.BigEndian, uint32(6))
	_ = binary.Write(&buf, binary.BigEndian, [3]uint16{0, 1, 96})
	buf.WriteString("MTrk")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(track)))
	buf.Write(track)
	return buf.Bytes()
}
