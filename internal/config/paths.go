package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
)

// Config path constants used by the CLI and loaders.
const (
	ConfigDirName  = ".reqtester"
	ConfigFileName = "config.yml"
	EnvFileName    = ".env"
)

// ConfigPath returns the config file path under a directory.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigDirName, ConfigFileName)
}

// ErrConfigNotFound is returned when discovery finds no config file.
var ErrConfigNotFound = errors.New("config file not found")

// FindConfigPath searches upward from a directory for .reqtester/config.yml.
func FindConfigPath(startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "get working directory")
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(err, "resolve start directory")
	}
	dir = abs

	for {
		configPath := ConfigPath(dir)
		info, err := os.Stat(configPath)
		if err == nil {
			if info.IsDir() {
				return "", errors.Errorf("config path %q is a directory", configPath)
			}
			return configPath, nil
		}
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "stat config path %q", configPath)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Wrapf(ErrConfigNotFound, "no %s in %s or parent directories",
				filepath.Join(ConfigDirName, ConfigFileName), abs)
		}
		dir = parent
	}
}
