package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default sources file name.
const DefaultConfigFile = ".removalscan.yaml"

// ErrConfigNotFound is returned when the sources file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads and validates a sources file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*SourcesFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f SourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the sources file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .removalscan.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .removalscan.yaml in the user's home directory
//
// Returns the path to the file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
