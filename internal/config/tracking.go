package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// TrackingConfig represents the playback journal configuration
type TrackingConfig struct {
	Enabled      bool   `json:"enabled"`       // Whether playback events are journaled
	DatabasePath string `json:"database_path"` // Custom database path (empty = XDG cache path)
}

// GetDefaultTrackingConfig returns the default journal configuration
func GetDefaultTrackingConfig() *TrackingConfig {
	return &TrackingConfig{
		Enabled:      true,
		DatabasePath: "", // Empty = XDG cache path
	}
}

// ApplyTrackingEnvironmentOverrides applies MIXKIT_TRACKING to a copy of config
func ApplyTrackingEnvironmentOverrides(config *TrackingConfig) *TrackingConfig {
	result := *config

	// MIXKIT_TRACKING
	if trackingStr := os.Getenv("MIXKIT_TRACKING"); trackingStr != "" {
		if enabled, err := strconv.ParseBool(trackingStr); err == nil {
			result.Enabled = enabled
			slog.Debug("applied tracking override from environment", "value", enabled)
		} else {
			slog.Warn("invalid MIXKIT_TRACKING environment variable", "value", trackingStr, "error", err)
		}
	}

	return &result
}

// ResolveDatabasePath returns the journal database path, defaulting to the
// XDG cache directory
func (cm *ConfigManager) ResolveDatabasePath(config *TrackingConfig) string {
	if config != nil && config.DatabasePath != "" {
		return config.DatabasePath
	}
	return filepath.Join(cm.xdg.GetCachePath(""), "journal.db")
}
