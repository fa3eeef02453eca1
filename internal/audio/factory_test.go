package audio

import (
	"errors"
	"testing"
)

func TestCreateDriverByName(t *testing.T) {
	factory := NewDriverFactoryWithDependencies(func() bool { return false }, true)

	testCases := []struct {
		driverType string
		wantName   string
	}{
		{"oto", "oto"},
		{"null", "null"},
		{"malgo", "malgo"},
		{"auto", "malgo"},
		{"", "malgo"},
	}

	for _, tc := range testCases {
		t.Run(tc.driverType, func(t *testing.T) {
			driver, err := factory.CreateDriver(tc.driverType)
			if err != nil {
				t.Fatalf("CreateDriver(%q) failed: %v", tc.driverType, err)
			}
			if driver.Name() != tc.wantName {
				t.Errorf("CreateDriver(%q) = %s, want %s", tc.driverType, driver.Name(), tc.wantName)
			}
		})
	}
}

func TestAutoDriverWithoutCgo(t *testing.T) {
	factory := NewDriverFactoryWithDependencies(func() bool { return true }, false)

	driver, err := factory.CreateDriver("auto")
	if err != nil {
		t.Fatalf("CreateDriver failed: %v", err)
	}
	if driver.Name() != "oto" {
		t.Errorf("expected oto without cgo, got %s", driver.Name())
	}
}

func TestCreateDriverInvalidType(t *testing.T) {
	factory := NewDriverFactoryWithDependencies(func() bool { return false }, true)

	driver, err := factory.CreateDriver("pulseaudio")
	if !errors.Is(err, ErrInvalidDriverType) {
		t.Errorf("expected ErrInvalidDriverType, got %v", err)
	}
	if driver != nil {
		t.Errorf("expected nil driver on error")
	}
}

func TestIsValidDriverType(t *testing.T) {
	for _, name := range append(SupportedDrivers(), "") {
		if !IsValidDriverType(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	for _, name := range []string{"alsa", "AUTO", "system_command"} {
		if IsValidDriverType(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}

	factory := NewDriverFactory()
	if len(factory.GetSupportedDrivers()) != 4 {
		t.Errorf("expected 4 supported drivers, got %v", factory.GetSupportedDrivers())
	}
	if !factory.IsValidDriverType("null") {
		t.Error("factory rejected the null driver")
	}
}
