package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "MDCELL_CONFIG"

// GetConfigPath returns the configuration file path. It first checks the
// MDCELL_CONFIG environment variable, then falls back to ~/.mdcell/config.
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(EnvConfigPath); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".mdcell", "config"), nil
}
