package config

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const appDir = "mixkit"

// XDGDirs provides XDG Base Directory compliant paths for mixkit
type XDGDirs struct{}

// NewXDGDirs creates a new XDG directory manager
func NewXDGDirs() *XDGDirs {
	return &XDGDirs{}
}

// GetSoundFontPaths returns the directories searched for SoundFonts, user
// data dir first
func (x *XDGDirs) GetSoundFontPaths() []string {
	return dataPaths("soundfonts")
}

// GetSoundPaths returns the data directories searched for sound names that
// are not found as given
func (x *XDGDirs) GetSoundPaths() []string {
	return dataPaths("sounds")
}

func dataPaths(purpose string) []string {
	baseDir := filepath.Join(appDir, purpose)

	paths := []string{filepath.Join(xdg.DataHome, baseDir)}
	for _, dataDir := range xdg.DataDirs {
		paths = append(paths, filepath.Join(dataDir, baseDir))
	}

	slog.Debug("generated data paths", "purpose", purpose, "total_paths", len(paths))
	return paths
}

// GetCachePath returns the cache directory path for a specific purpose
func (x *XDGDirs) GetCachePath(purpose string) string {
	baseDir := appDir
	if purpose != "" {
		baseDir = filepath.Join(baseDir, purpose)
	}
	return filepath.Join(xdg.CacheHome, baseDir)
}

// GetConfigPaths returns prioritized paths where config files can be found
// Returns paths in search order: user config dir, then system config dirs
func (x *XDGDirs) GetConfigPaths(filename string) []string {
	var paths []string

	userConfigPath := filepath.Join(xdg.ConfigHome, appDir)
	if filename != "" {
		userConfigPath = filepath.Join(userConfigPath, filename)
	}
	paths = append(paths, userConfigPath)

	for _, configDir := range xdg.ConfigDirs {
		systemConfigPath := filepath.Join(configDir, appDir)
		if filename != "" {
			systemConfigPath = filepath.Join(systemConfigPath, filename)
		}
		paths = append(paths, systemConfigPath)
	}

	slog.Debug("generated config paths",
		"filename", filename,
		"total_paths", len(paths),
		"user_path", userConfigPath)

	return paths
}

// sanitizePath removes dangerous path components and normalizes the path
func sanitizePath(path string) string {
	path = strings.ReplaceAll(path, "\x00", "")
	path = strings.ReplaceAll(path, "\n", "")
	path = strings.ReplaceAll(path, "\r", "")

	path = filepath.Clean(path)

	// path must stay below the directory it is joined to
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "..") || strings.Contains(path, "../") {
		slog.Warn("rejecting potentially dangerous path", "path", path)
		return ""
	}

	return path
}
