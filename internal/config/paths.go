package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used across all platforms.
const appName = "sncloud"

// Config file name.
const configFileName = "config.toml"

// Environment variable overriding the config file location.
const EnvConfig = "SNCLOUD_CONFIG"

// DefaultConfigDir returns the platform-specific directory for the
// config file. On Linux, respects XDG_CONFIG_HOME (defaults to
// ~/.config/sncloud). On macOS, uses ~/Library/Application Support/sncloud.
// Other platforms fall back to ~/.config/sncloud.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxConfigDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// linuxConfigDir returns the XDG-compliant config directory for Linux.
func linuxConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the full path to the default config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, configFileName)
}

// ResolvePath picks the effective config path: the --config flag wins,
// then SNCLOUD_CONFIG, then the platform default.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}

	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}

	return DefaultConfigPath()
}
