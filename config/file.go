package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FilePath returns the config file location: $HOLDINGS_CONFIG if set,
// otherwise ~/.holdings/config.yaml.
func FilePath() (string, error) {
	if path := os.Getenv("HOLDINGS_CONFIG"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".holdings", "config.yaml"), nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values. Returns false if the file doesn't exist
// (not an error). Returns error if the file exists but cannot be parsed.
func LoadFile(path string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decode into a copy so a parse error leaves cfg untouched.
	next := *cfg
	next.UserAgents = append([]string(nil), cfg.UserAgents...)
	if err := yaml.Unmarshal(data, &next); err != nil {
		return false, fmt.Errorf("failed to parse config file: %w", err)
	}

	*cfg = next
	return true, nil
}
