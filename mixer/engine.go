package mixer

import (
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// resampleQuality is passed to beep.Resample when a source rate differs from
// the device rate
const resampleQuality = 4

// voice plays one resource for a fixed number of passes
type voice struct {
	// open starts a new pass from the beginning of the resource
	open func() (beep.Streamer, error)
	// done runs once when the voice stops, whether drained or halted
	done func()

	cur      beep.Streamer
	loops    int
	finished bool
}

// newVoice starts the first pass. loops is the number of extra passes, or -1
// to repeat until halted.
func newVoice(open func() (beep.Streamer, error), loops int, done func()) (*voice, error) {
	cur, err := open()
	if err != nil {
		return nil, err
	}
	return &voice{open: open, done: done, cur: cur, loops: loops}, nil
}

// Stream implements beep.Streamer and restarts the resource while passes remain
func (v *voice) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	passFrames := 0
	emptyPasses := 0

	for filled < len(samples) && v.cur != nil {
		n, ok := v.cur.Stream(samples[filled:])
		filled += n
		passFrames += n
		if ok && n > 0 {
			continue
		}

		// pass ended
		if passFrames == 0 {
			emptyPasses++
		}
		if v.loops == 0 || emptyPasses > 1 {
			v.cur = nil
			break
		}
		if v.loops > 0 {
			v.loops--
		}
		next, err := v.open()
		if err != nil {
			v.cur = nil
			break
		}
		v.cur = next
		passFrames = 0
	}

	return filled, filled > 0
}

func (v *voice) Err() error {
	return nil
}

func (v *voice) active() bool {
	return v.cur != nil
}

// stop releases the voice. Safe to call more than once.
func (v *voice) stop() {
	if v.finished {
		return
	}
	v.finished = true
	v.cur = nil
	if v.done != nil {
		v.done()
	}
}

// lane is one mixing channel
type lane struct {
	volume int
	voice  *voice
	gain   *effects.Gain
}

func (l *lane) setVoice(v *voice) {
	l.clear()
	l.voice = v
	l.gain = &effects.Gain{Streamer: v, Gain: gainFor(l.volume)}
}

func (l *lane) clear() {
	if l.voice != nil {
		l.voice.stop()
	}
	l.voice = nil
	l.gain = nil
}

func (l *lane) setVolume(volume int) {
	l.volume = volume
	if l.gain != nil {
		l.gain.Gain = gainFor(volume)
	}
}

func (l *lane) busy() bool {
	return l.voice != nil
}

// mix adds the lane's next len(out) frames into out
func (l *lane) mix(out, scratch [][2]float64) {
	if l.voice == nil {
		return
	}
	n, _ := l.gain.Stream(scratch)
	for i := 0; i < n; i++ {
		out[i][0] += scratch[i][0]
		out[i][1] += scratch[i][1]
	}
	if !l.voice.active() {
		l.clear()
	}
}

// gainFor maps a 0..MaxVolume volume to an effects.Gain factor
func gainFor(volume int) float64 {
	return float64(volume)/MaxVolume - 1
}

func clampVolume(volume int) int {
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// engine is the streamer handed to the output device. It mixes every channel
// lane plus the music lane and never drains; idle lanes contribute silence.
type engine struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	lanes   []*lane
	music   *lane
	scratch [][2]float64
}

func newEngine() *engine {
	return &engine{music: &lane{volume: MaxVolume}}
}

// Stream implements beep.Streamer
func (e *engine) Stream(samples [][2]float64) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range samples {
		samples[i] = [2]float64{}
	}
	if cap(e.scratch) < len(samples) {
		e.scratch = make([][2]float64, len(samples))
	}

	for _, l := range e.lanes {
		if l.busy() {
			scratch := e.scratch[:len(samples)]
			clearFrames(scratch)
			l.mix(samples, scratch)
		}
	}
	if e.music.busy() {
		scratch := e.scratch[:len(samples)]
		clearFrames(scratch)
		e.music.mix(samples, scratch)
	}

	return len(samples), true
}

func (e *engine) Err() error {
	return nil
}

func clearFrames(frames [][2]float64) {
	for i := range frames {
		frames[i] = [2]float64{}
	}
}

func (e *engine) setRate(rate beep.SampleRate) {
	e.mu.Lock()
	e.rate = rate
	e.mu.Unlock()
}

func (e *engine) sampleRate() beep.SampleRate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

// allocate resizes the channel set, halting lanes that are removed
func (e *engine) allocate(n int) int {
	if n < 0 {
		n = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for len(e.lanes) < n {
		e.lanes = append(e.lanes, &lane{volume: MaxVolume})
	}
	for _, l := range e.lanes[n:] {
		l.clear()
	}
	e.lanes = e.lanes[:n]
	return n
}

func (e *engine) channelCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lanes)
}

// play assigns a voice to a channel, or to the first idle channel when
// channel is -1. It returns the channel used.
func (e *engine) play(channel int, start func() (*voice, error)) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if channel == -1 {
		channel = e.firstIdle()
		if channel < 0 {
			return channel, ErrNoFreeChannel
		}
	}
	if channel < 0 || channel >= len(e.lanes) {
		return channel, ErrInvalidChannel
	}

	l := e.lanes[channel]
	l.clear()

	v, err := start()
	if err != nil {
		return channel, err
	}
	l.setVoice(v)
	return channel, nil
}

func (e *engine) firstIdle() int {
	for i, l := range e.lanes {
		if !l.busy() {
			return i
		}
	}
	return -1
}

// halt stops a channel, or every channel when channel is -1. Out of range
// channels are ignored.
func (e *engine) halt(channel int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if channel == -1 {
		for _, l := range e.lanes {
			l.clear()
		}
		return
	}
	if channel < 0 || channel >= len(e.lanes) {
		return
	}
	e.lanes[channel].clear()
}

// setVolume sets a channel's volume and returns the previous one. A negative
// volume only queries. Channel -1 sets every channel and returns the average.
func (e *engine) setVolume(channel, volume int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if channel == -1 {
		if len(e.lanes) == 0 {
			return 0
		}
		total := 0
		for _, l := range e.lanes {
			total += l.volume
			if volume >= 0 {
				l.setVolume(clampVolume(volume))
			}
		}
		return total / len(e.lanes)
	}
	if channel < 0 || channel >= len(e.lanes) {
		return 0
	}

	l := e.lanes[channel]
	prev := l.volume
	if volume >= 0 {
		l.setVolume(clampVolume(volume))
	}
	return prev
}

func (e *engine) playing(channel int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if channel < 0 || channel >= len(e.lanes) {
		return false
	}
	return e.lanes[channel].busy()
}

func (e *engine) playingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, l := range e.lanes {
		if l.busy() {
			count++
		}
	}
	return count
}

// playMusic replaces whatever occupies the music lane
func (e *engine) playMusic(start func() (*voice, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.music.clear()
	v, err := start()
	if err != nil {
		return err
	}
	e.music.setVoice(v)
	return nil
}

func (e *engine) haltMusic() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.music.clear()
}

func (e *engine) setMusicVolume(volume int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.music.volume
	if volume >= 0 {
		e.music.setVolume(clampVolume(volume))
	}
	return prev
}

func (e *engine) musicPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.music.busy()
}

// shutdown halts everything
func (e *engine) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.lanes {
		l.clear()
	}
	e.music.clear()
}
