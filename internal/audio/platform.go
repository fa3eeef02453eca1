package audio

import (
	"log/slog"
	"os"
	"strings"
)

// IsWSL checks if the current environment is Windows Subsystem for Linux
func IsWSL() bool {
	return detectWSLFromData(readProcVersion(), os.Getenv("WSL_DISTRO_NAME"))
}

// detectWSLFromData checks for WSL indicators in the provided data (for testing)
func detectWSLFromData(procVersion, wslEnv string) bool {
	slog.Debug("checking WSL detection", "proc_version_snippet", truncateString(procVersion, 50), "wsl_env", wslEnv)

	if wslEnv != "" {
		slog.Debug("WSL detected via environment variable", "distro", wslEnv)
		return true
	}

	procLower := strings.ToLower(procVersion)
	if strings.Contains(procLower, "microsoft") || strings.Contains(procLower, "wsl") {
		slog.Debug("WSL detected via /proc/version")
		return true
	}

	slog.Debug("no WSL indicators found")
	return false
}

// readProcVersion reads /proc/version file content
func readProcVersion() string {
	content, err := os.ReadFile("/proc/version")
	if err != nil {
		slog.Debug("failed to read /proc/version", "error", err)
		return ""
	}
	return string(content)
}

// preferredMalgoBackends returns the native backends malgo should try, in
// order. WSLg exposes audio through a PulseAudio server.
func preferredMalgoBackends(isWSL bool) []string {
	if isWSL {
		slog.Debug("WSL detected, preferring PulseAudio backend")
		return []string{"pulseaudio", "alsa"}
	}
	slog.Debug("using malgo default backend order")
	return nil
}

// truncateString truncates a string to maxLen characters for logging
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
