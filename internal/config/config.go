package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/ctoth/mixkit/internal/audio"
	"github.com/ctoth/mixkit/mixer"
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// Config represents mixkit configuration
type Config struct {
	Driver      string             `json:"driver"`                // Output driver (auto, malgo, oto, null)
	Frequency   int                `json:"frequency"`             // Output sample rate in Hz
	Format      string             `json:"format"`                // Output sample format (u8, s16, s32, f32)
	Channels    int                `json:"channels"`              // Output layout, 1 or 2
	ChunkSize   int                `json:"chunk_size"`            // Device buffer in frames
	MixChannels int                `json:"mix_channels"`          // Number of mixing channels
	SoundFont   string             `json:"soundfont"`             // SoundFont for MIDI, relative names are searched in XDG data dirs
	SoundPaths  []string           `json:"sound_paths,omitempty"` // Directories searched for sound names
	Sounds      map[string]string  `json:"sounds,omitempty"`      // Named sounds, name -> file
	LogLevel    string             `json:"log_level"`             // Log level (debug, info, warn, error)
	FileLogging *FileLoggingConfig `json:"file_logging,omitempty"`
	Tracking    *TrackingConfig    `json:"tracking,omitempty"`
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
	GetSoundFontPaths() []string
	GetSoundPaths() []string
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManager creates a configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFilesystem(afero.NewOsFs())
}

// NewConfigManagerWithFilesystem creates a configuration manager reading and
// writing through fs
func NewConfigManagerWithFilesystem(fs afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		xdg: NewXDGDirs(),
		fs:  fs,
	}
}

// Filesystem returns the filesystem the manager reads through
func (cm *ConfigManager) Filesystem() afero.Fs {
	return cm.fs
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	defaultConfig := &Config{
		Driver:      "auto",
		Frequency:   mixer.DefaultFrequency,
		Format:      mixer.DefaultFormat,
		Channels:    mixer.DefaultChannels,
		ChunkSize:   mixer.DefaultChunkSize,
		MixChannels: mixer.DefaultMixChannels,
		LogLevel:    "warn",
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "", // Empty = XDG cache path
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Tracking: GetDefaultTrackingConfig(),
	}

	slog.Debug("generated default config",
		"driver", defaultConfig.Driver,
		"frequency", defaultConfig.Frequency,
		"format", defaultConfig.Format,
		"log_level", defaultConfig.LogLevel,
		"tracking_enabled", defaultConfig.Tracking.Enabled)

	return defaultConfig
}

// LoadFromFile loads configuration from a specific file. Fields missing
// from the file keep their default values.
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := cm.GetDefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		return nil, err
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"driver", config.Driver,
		"frequency", config.Frequency)

	return config, nil
}

// SaveToFile saves configuration to a specific file
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	unlock, err := cm.lockFile(filePath)
	if err != nil {
		return err
	}
	defer unlock()

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// LoadConfig loads configuration using XDG path discovery
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	configPaths := cm.xdg.GetConfigPaths("config.json")
	slog.Debug("searching for config file", "paths", configPaths)

	for i, configPath := range configPaths {
		if _, err := cm.fs.Stat(configPath); err == nil {
			slog.Debug("found config file", "path_index", i, "path", configPath)
			return cm.LoadFromFile(configPath)
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// UserConfigPath returns the per-user config file location, where
// "mixkit config init" writes
func (cm *ConfigManager) UserConfigPath() string {
	return cm.xdg.GetConfigPaths("config.json")[0]
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ValidateConfig validates configuration values, reporting every problem
// at once
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var errors []string

	if !audio.IsValidDriverType(config.Driver) {
		errors = append(errors, fmt.Sprintf("invalid driver '%s', must be one of: %s",
			config.Driver, strings.Join(audio.SupportedDrivers(), ", ")))
	}

	if config.Frequency < 0 {
		errors = append(errors, fmt.Sprintf("frequency must be >= 0, got %d", config.Frequency))
	}

	if config.Format != "" {
		if _, err := audio.ParseSampleFormat(config.Format); err != nil {
			errors = append(errors, fmt.Sprintf("invalid format '%s', must be one of: u8, s16, s24, s32, f32", config.Format))
		}
	}

	if config.Channels != 0 && config.Channels != 1 && config.Channels != 2 {
		errors = append(errors, fmt.Sprintf("channels must be 1 or 2, got %d", config.Channels))
	}

	if config.ChunkSize < 0 {
		errors = append(errors, fmt.Sprintf("chunk_size must be >= 0, got %d", config.ChunkSize))
	}

	if config.MixChannels < 0 {
		errors = append(errors, fmt.Sprintf("mix_channels must be >= 0, got %d", config.MixChannels))
	}

	if config.LogLevel != "" {
		if _, err := ParseLogLevel(config.LogLevel); err != nil {
			errors = append(errors, fmt.Sprintf("invalid log level '%s', must be one of: %s",
				config.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	for i, dir := range config.SoundPaths {
		if strings.TrimSpace(dir) == "" {
			errors = append(errors, fmt.Sprintf("sound_paths[%d] is empty", i))
		}
	}

	for name, path := range config.Sounds {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, "sounds contains an empty name")
		} else if strings.TrimSpace(path) == "" {
			errors = append(errors, fmt.Sprintf("sound '%s' has no file", name))
		}
	}

	if fileLogging := config.FileLogging; fileLogging != nil {
		if fileLogging.MaxSizeMB < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fileLogging.MaxSizeMB))
		}
		if fileLogging.MaxBackups < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fileLogging.MaxBackups))
		}
		if fileLogging.MaxAgeDays < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fileLogging.MaxAgeDays))
		}
	}

	if len(errors) > 0 {
		errMsg := strings.Join(errors, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}

	slog.Debug("config validation passed")
	return nil
}

// ApplyEnvironmentOverrides applies MIXKIT_* environment variables to a copy
// of config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	slog.Debug("applying environment variable overrides")

	result := *config

	// MIXKIT_DRIVER
	if driver := os.Getenv("MIXKIT_DRIVER"); driver != "" {
		if audio.IsValidDriverType(driver) {
			result.Driver = driver
			slog.Debug("applied driver override from environment", "value", driver)
		} else {
			slog.Warn("invalid MIXKIT_DRIVER environment variable", "value", driver)
		}
	}

	// MIXKIT_FREQUENCY
	if freqStr := os.Getenv("MIXKIT_FREQUENCY"); freqStr != "" {
		if freq, err := strconv.Atoi(freqStr); err == nil && freq > 0 {
			result.Frequency = freq
			slog.Debug("applied frequency override from environment", "value", freq)
		} else {
			slog.Warn("invalid MIXKIT_FREQUENCY environment variable", "value", freqStr, "error", err)
		}
	}

	// MIXKIT_SOUNDFONT
	if soundFont := os.Getenv("MIXKIT_SOUNDFONT"); soundFont != "" {
		result.SoundFont = soundFont
		slog.Debug("applied soundfont override from environment", "value", soundFont)
	}

	// MIXKIT_SOUND_PATH, list separated like PATH
	if soundPath := os.Getenv("MIXKIT_SOUND_PATH"); soundPath != "" {
		result.SoundPaths = filepath.SplitList(soundPath)
		slog.Debug("applied sound path override from environment", "value", result.SoundPaths)
	}

	// MIXKIT_LOG_LEVEL
	if logLevel := os.Getenv("MIXKIT_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = logLevel
		slog.Debug("applied log level override from environment", "value", logLevel)
	}

	if config.Tracking != nil {
		result.Tracking = ApplyTrackingEnvironmentOverrides(config.Tracking)
	}

	slog.Debug("environment overrides applied")
	return &result
}

// ParseLogLevel converts a configured level name to a slog.Level
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s', must be one of: %s",
			logLevel, strings.Join(validLogLevels, ", "))
	}
}

// ResolveLogFilePath resolves the log file path using the XDG cache
// directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "mixkit.log")
}

// ResolveSoundFont returns the SoundFont path to hand to the mixer. Absolute
// paths and paths that exist are used as given; bare names are searched in
// the XDG soundfont directories.
func (cm *ConfigManager) ResolveSoundFont(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if _, err := cm.fs.Stat(name); err == nil {
		return name
	}

	relative := sanitizePath(name)
	if relative == "" {
		return name
	}
	for _, dir := range cm.xdg.GetSoundFontPaths() {
		candidate := filepath.Join(dir, relative)
		if _, err := cm.fs.Stat(candidate); err == nil {
			slog.Debug("soundfont found", "name", name, "path", candidate)
			return candidate
		}
	}

	slog.Debug("soundfont not found in data dirs", "name", name)
	return name
}

// SoundSearchPaths returns the directories sound names are looked up in:
// configured paths first, then the XDG sound directories
func (cm *ConfigManager) SoundSearchPaths(config *Config) []string {
	paths := make([]string, 0, len(config.SoundPaths))
	paths = append(paths, config.SoundPaths...)
	return append(paths, cm.xdg.GetSoundPaths()...)
}

// ToBackendConfig converts the configuration to a mixer backend request
func (cm *ConfigManager) ToBackendConfig(config *Config) mixer.Config {
	return mixer.Config{
		Driver:      config.Driver,
		Frequency:   config.Frequency,
		Format:      config.Format,
		Channels:    config.Channels,
		ChunkSize:   config.ChunkSize,
		MixChannels: config.MixChannels,
		Formats:     mixer.DefaultFormats,
		SoundFont:   cm.ResolveSoundFont(config.SoundFont),
		Fs:          cm.fs,
	}
}
