package mixer

import "time"

// Op names a mixer operation in an Event
type Op string

// Operations reported to observers
const (
	OpLoadSound   Op = "load_sound"
	OpLoadMusic   Op = "load_music"
	OpPlayChannel Op = "play_channel"
	OpPlayMusic   Op = "play_music"
	OpHaltChannel Op = "halt_channel"
	OpHaltMusic   Op = "halt_music"
	OpVolumeMusic Op = "volume_music"
	OpVolumeChunk Op = "volume_chunk"
)

// Event describes one completed mixer operation
type Event struct {
	Op       Op
	Path     string
	Channel  int
	Loops    int
	Volume   int
	Previous int
	Err      error
	Time     time.Time
}

// Observer receives an Event after every mixer operation. Observe runs on
// the caller's goroutine and must not call back into the Mixer.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Observe calls f(e)
func (f ObserverFunc) Observe(e Event) {
	f(e)
}
