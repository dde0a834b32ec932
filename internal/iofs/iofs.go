// Package iofs prepares the file system layout used by fungidb:
// config, cache and log directories and the default config file.
package iofs

import (
	_ "embed"
	"os"

	"github.com/gnames/fungidb/pkg/config"
)

// ConfigYAML is the commented template written to
// ~/.config/fungidb/config.yaml on the first run.
//
//go:embed config.yaml
var ConfigYAML string

// EnsureDirs creates config, cache and log directories under homeDir.
func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

// EnsureConfigFile writes the config template unless the file exists.
// Existing files are never overwritten.
func EnsureConfigFile(homeDir string) error {
	configPath := config.ConfigFilePath(homeDir)

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	// the file may keep object store secrets
	if err := os.WriteFile(configPath, []byte(ConfigYAML), 0600); err != nil {
		return CopyFileError(configPath, err)
	}

	return nil
}

// ReadFile returns the content of a file as a string.
func ReadFile(path string) (string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", ReadFileError(path, err)
	}
	return string(bs), nil
}
