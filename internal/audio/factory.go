package audio

import (
	"errors"
	"fmt"
	"log/slog"
)

// DriverFactory creates Driver instances based on configuration
type DriverFactory interface {
	CreateDriver(driverType string) (Driver, error)
	GetSupportedDrivers() []string
	IsValidDriverType(driverType string) bool
}

// DefaultDriverFactory implements DriverFactory with platform detection
type DefaultDriverFactory struct {
	isWSLFunc    func() bool
	cgoAvailable bool
}

// Factory errors
var (
	ErrInvalidDriverType = errors.New("invalid driver type")
)

// NewDriverFactory creates a new DefaultDriverFactory with real platform detection
func NewDriverFactory() *DefaultDriverFactory {
	return &DefaultDriverFactory{
		isWSLFunc:    IsWSL,
		cgoAvailable: malgoAvailable,
	}
}

// NewDriverFactoryWithDependencies creates a factory with injected dependencies for testing
func NewDriverFactoryWithDependencies(isWSLFunc func() bool, cgoAvailable bool) *DefaultDriverFactory {
	return &DefaultDriverFactory{
		isWSLFunc:    isWSLFunc,
		cgoAvailable: cgoAvailable,
	}
}

// SupportedDrivers lists every driver name accepted in configuration
func SupportedDrivers() []string {
	return []string{"auto", "malgo", "oto", "null"}
}

// CreateDriver creates a Driver based on the specified type
func (f *DefaultDriverFactory) CreateDriver(driverType string) (Driver, error) {
	if driverType == "" {
		driverType = "auto"
	}

	slog.Debug("creating audio driver", "type", driverType)

	switch driverType {
	case "auto":
		return f.createAutoDriver(), nil
	case "malgo":
		return f.createMalgoDriver(), nil
	case "oto":
		return NewOtoDriver(), nil
	case "null":
		return NewNullDriver(), nil
	default:
		slog.Error("invalid driver type requested", "type", driverType)
		return nil, fmt.Errorf("%w: %s", ErrInvalidDriverType, driverType)
	}
}

// GetSupportedDrivers returns a list of all supported driver types
func (f *DefaultDriverFactory) GetSupportedDrivers() []string {
	return SupportedDrivers()
}

// IsValidDriverType checks if a driver type is supported
func (f *DefaultDriverFactory) IsValidDriverType(driverType string) bool {
	return IsValidDriverType(driverType)
}

// IsValidDriverType checks a driver name without needing a factory
func IsValidDriverType(driverType string) bool {
	// Empty string is valid (defaults to auto)
	if driverType == "" {
		return true
	}
	for _, supported := range SupportedDrivers() {
		if driverType == supported {
			return true
		}
	}
	return false
}

// createAutoDriver prefers malgo and falls back to oto when built without cgo
func (f *DefaultDriverFactory) createAutoDriver() Driver {
	if !f.cgoAvailable {
		slog.Debug("cgo unavailable, auto-selecting oto driver")
		return NewOtoDriver()
	}
	return f.createMalgoDriver()
}

func (f *DefaultDriverFactory) createMalgoDriver() Driver {
	backends := preferredMalgoBackends(f.isWSLFunc())
	slog.Debug("creating malgo driver", "preferred_backends", backends)
	return NewMalgoDriver(backends)
}
