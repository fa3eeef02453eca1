package config

import (
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
)

// lockFile takes an exclusive advisory lock on path+".lock" so concurrent
// writers of the same config file serialize. Only the OS filesystem can be
// locked; other filesystems get a no-op.
func (cm *ConfigManager) lockFile(path string) (func(), error) {
	if _, ok := cm.fs.(*afero.OsFs); !ok {
		return func() {}, nil
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		slog.Error("failed to acquire config lock", "file_path", lock.Path(), "error", err)
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	slog.Debug("config lock acquired", "file_path", lock.Path())

	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("failed to release config lock", "file_path", lock.Path(), "error", err)
		}
	}, nil
}
