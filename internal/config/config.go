// Package config reads and writes the sncloud config file. The file
// persists exactly one thing, the bearer token from the last login, so
// the CLI can skip re-login between invocations. It is treated as a
// credential file: owner-only permissions and atomic writes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FilePerms restricts the config file to owner read/write; it holds the
// login token.
const FilePerms = 0o600

// DirPerms is used when creating the config directory.
const DirPerms = 0o700

// Config is the on-disk format.
type Config struct {
	AccessToken string `toml:"access_token"`
}

// Load reads and parses a TOML config file. Returns (nil, nil) when the
// file does not exist, the sentinel for "not logged in".
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config atomically: temp file in the target directory,
// permissions tightened, then rename. Parent directories are created as
// needed. A crash mid-write leaves either the old file or the new one,
// never a truncated mix.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}

	return atomicWriteFile(path, data)
}

// atomicWriteFile writes data to a temp file in the same directory as
// path and renames it into place.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerms); err != nil {
		return fmt.Errorf("config: creating directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}

	tempPath := f.Name()

	// Clean up the temp file on any error path.
	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("config: writing temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return fmt.Errorf("config: syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("config: closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, FilePerms); err != nil {
		return fmt.Errorf("config: setting permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("config: renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
