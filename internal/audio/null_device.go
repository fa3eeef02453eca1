package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// NullDriver opens devices that produce no sound and never pull from their
// source. The negotiated spec equals the request. Callers advance playback
// themselves, which makes it the driver for tests and headless hosts.
type NullDriver struct {
	// OpenErr, when set, is returned by Open
	OpenErr error
}

// NewNullDriver creates a silent driver
func NewNullDriver() *NullDriver {
	return &NullDriver{}
}

// Name returns the driver name used in configuration
func (d *NullDriver) Name() string {
	return "null"
}

// Open returns a silent device
func (d *NullDriver) Open(req DeviceSpec, src beep.Streamer) (Device, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &nullDevice{spec: req}, nil
}

type nullDevice struct {
	spec DeviceSpec

	mu      sync.Mutex
	started bool
	closed  bool
}

func (d *nullDevice) Spec() DeviceSpec {
	return d.spec
}

func (d *nullDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.started = true
	return nil
}

func (d *nullDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.started = false
	return nil
}
