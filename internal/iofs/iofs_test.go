package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirs(t *testing.T) {
	tmpDir := t.TempDir()

	// repeated calls must succeed
	for range 3 {
		require.NoError(t, EnsureDirs(tmpDir))
	}

	dirs := []string{
		filepath.Join(tmpDir, ".config", "fungidb"),
		filepath.Join(tmpDir, ".cache", "fungidb"),
		filepath.Join(tmpDir, ".local", "share", "fungidb", "logs"),
	}
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestTouchDir(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "a", "b")

	require.NoError(t, touchDir(dir))
	require.NoError(t, touchDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestTouchDirOverFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	err := touchDir(filepath.Join(path, "sub"))
	assert.Error(t, err)
}

func TestEnsureConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, EnsureDirs(tmpDir))
	require.NoError(t, EnsureConfigFile(tmpDir))

	configPath := filepath.Join(tmpDir, ".config", "fungidb", "config.yaml")
	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, ConfigYAML, string(content))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	t.Run("keeps user edits", func(t *testing.T) {
		custom := "store:\n  db: custom\n"
		require.NoError(t, os.WriteFile(configPath, []byte(custom), 0600))
		require.NoError(t, EnsureConfigFile(tmpDir))

		content, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, custom, string(content))
	})
}

func TestConfigYAMLEmbedded(t *testing.T) {
	sections := []string{
		"input:", "store:", "object_store:", "upstream:",
		"rate_limit:", "filters:", "acquirer:", "log:",
	}
	for _, s := range sections {
		assert.Contains(t, ConfigYAML, s)
	}
	assert.Contains(t, ConfigYAML, "FUNGIDB_")
}

func TestReadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	s, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = ReadFile(filepath.Join(tmpDir, "missing.txt"))
	assert.Error(t, err)
}
