package fs

import (
	"github.com/spf13/afero"
)

// Factory provides the filesystems mixkit reads configuration and audio through
type Factory interface {
	// Production returns a filesystem that operates on the real OS filesystem
	Production() afero.Fs
	// Memory returns an in-memory filesystem for testing
	Memory() afero.Fs
	// ReadOnly wraps base so that every write fails
	ReadOnly(base afero.Fs) afero.Fs
}

// DefaultFactory provides the standard filesystem factory implementation
type DefaultFactory struct{}

// NewDefaultFactory creates a new filesystem factory
func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

func (f *DefaultFactory) Production() afero.Fs {
	return afero.NewOsFs()
}

func (f *DefaultFactory) Memory() afero.Fs {
	return afero.NewMemMapFs()
}

// ReadOnly is used for the audio loaders, which never write. Wrapping an
// already read-only filesystem returns it unchanged.
func (f *DefaultFactory) ReadOnly(base afero.Fs) afero.Fs {
	if _, ok := base.(*afero.ReadOnlyFs); ok {
		return base
	}
	return afero.NewReadOnlyFs(base)
}
