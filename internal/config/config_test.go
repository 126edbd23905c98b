package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("access_token = [broken"), FilePerms))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	err := Save(path, &Config{AccessToken: "tok-abc"})
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "tok-abc", cfg.AccessToken)
}

func TestSave_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	err := Save(path, &Config{AccessToken: "secret"})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "deep", "config.toml")

	err := Save(path, &Config{AccessToken: "tok"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSave_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, Save(path, &Config{AccessToken: "old"}))
	require.NoError(t, Save(path, &Config{AccessToken: "new"}))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "new", cfg.AccessToken)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, Save(path, &Config{AccessToken: "tok"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestAtomicWriteFile_InvalidDirectory(t *testing.T) {
	// A file where a directory is needed makes MkdirAll fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), FilePerms))

	err := atomicWriteFile(filepath.Join(blocker, "sub", "config.toml"), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating directory")
}
