package mixer

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ctoth/mixkit/internal/audio"
)

// Sentinel errors wrapped by BackendError, DecodeError and PlaybackError
var (
	ErrNotInitialized     = errors.New("audio backend not initialized")
	ErrAlreadyInitialized = errors.New("audio backend already initialized")
	ErrBackendClosed      = errors.New("audio backend is closed")
	ErrPersistentBackend  = errors.New("the default audio backend lives for the whole process")
	ErrInvalidChannel     = errors.New("invalid channel")
	ErrInvalidLoops       = errors.New("invalid loop count")
	ErrNilResource        = errors.New("nil audio resource")
	ErrResourceClosed     = errors.New("audio resource is closed")
	ErrNoFreeChannel      = errors.New("no free channels available")

	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
	ErrInvalidData       = audio.ErrInvalidData
	ErrSoundFontRequired = audio.ErrSoundFontRequired
)

// BackendError reports that the audio device or core subsystem could not be
// brought up. It is fatal for the process's audio capability.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("audio backend %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// DecodeError reports that a file could not be opened or decoded
type DecodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("couldn't open '%s': %s", e.Path, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(path string, err error) *DecodeError {
	return &DecodeError{Path: path, Reason: decodeReason(err), Err: err}
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "file not found"
	case errors.Is(err, fs.ErrPermission):
		return "permission denied"
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return "unsupported audio format"
	case errors.Is(err, audio.ErrInvalidData):
		return "invalid or corrupt audio data"
	case errors.Is(err, audio.ErrReadFailure):
		return "read failed"
	default:
		return err.Error()
	}
}

// PlaybackError reports that the mixer rejected a playback command
type PlaybackError struct {
	Op      string
	Channel int
	Err     error
}

func (e *PlaybackError) Error() string {
	if e.Op == string(OpPlayMusic) {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on channel %d failed: %v", e.Op, e.Channel, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
