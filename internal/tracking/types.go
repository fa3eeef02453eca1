package tracking

import "time"

// PlaybackEvent is one journaled mixer operation
type PlaybackEvent struct {
	ID        int64
	Timestamp time.Time
	RunID     string
	Op        string
	Path      string
	Channel   int
	Loops     int
	Volume    int
	Previous  int
	Error     string
}

// Failed reports whether the operation returned an error
func (e PlaybackEvent) Failed() bool {
	return e.Error != ""
}

// OpStats summarizes one operation across the filtered events
type OpStats struct {
	Op       string
	Count    int
	Failures int
}

// PathUsage counts how often a resource was loaded or played
type PathUsage struct {
	Path     string
	Loads    int
	Plays    int
	Failures int
	LastSeen time.Time
}

// Summary aggregates the filtered events
type Summary struct {
	TotalEvents int
	Failures    int
	Runs        int
	UniquePaths int
	First       time.Time
	Last        time.Time
}
