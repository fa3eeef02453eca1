package tracking

import (
	"log/slog"

	"github.com/ctoth/mixkit/mixer"
)

// SlogObserver logs every mixer event for debugging
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a new SlogObserver with the given logger
// If logger is nil, uses the default logger
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// Observe implements mixer.Observer
func (s *SlogObserver) Observe(ev mixer.Event) {
	attrs := []any{
		"op", string(ev.Op),
		"path", ev.Path,
		"channel", ev.Channel,
	}
	switch ev.Op {
	case mixer.OpPlayChannel, mixer.OpPlayMusic:
		attrs = append(attrs, "loops", ev.Loops)
	case mixer.OpVolumeChunk, mixer.OpVolumeMusic:
		attrs = append(attrs, "volume", ev.Volume, "previous", ev.Previous)
	}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err)
	}
	s.logger.Debug("mixer event", attrs...)
}
