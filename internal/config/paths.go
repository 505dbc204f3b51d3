package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigPath returns the platform config file location:
// $XDG_CONFIG_HOME/pscpm/config.toml, falling back to ~/.config.
func DefaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}

		base = filepath.Join(home, ".config")
	}

	return filepath.Join(base, "pscpm", "config.toml")
}
