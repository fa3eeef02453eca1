//go:build !cgo

package audio

import (
	"errors"
	"fmt"

	"github.com/gopxl/beep/v2"
)

const malgoAvailable = false

var errCGORequired = errors.New(`the malgo driver requires CGO support.

This error occurs when mixkit is built without CGO enabled.

To fix this issue:
1. Ensure CGO_ENABLED=1 (this is the default for native builds)
2. Install a C compiler:
   - Linux: sudo apt-get install build-essential
   - macOS: xcode-select --install
   - Windows: Install MinGW or Visual Studio Build Tools
3. Or select another driver with --driver oto`)

// MalgoDriver is unavailable in builds without cgo
type MalgoDriver struct{}

// NewMalgoDriver returns a driver whose Open always fails
func NewMalgoDriver(_ []string) *MalgoDriver {
	return &MalgoDriver{}
}

// Name returns the driver name used in configuration
func (d *MalgoDriver) Name() string {
	return "malgo"
}

// Open always fails without cgo
func (d *MalgoDriver) Open(req DeviceSpec, src beep.Streamer) (Device, error) {
	return nil, fmt.Errorf("%w: %w", ErrDriverNotAvailable, errCGORequired)
}
