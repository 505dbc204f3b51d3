package config

import "os"

// EnvOverrides holds configuration read from environment variables.
// Secrets are commonly supplied this way so they stay out of the config file.
type EnvOverrides struct {
	ConfigPath   string
	Server       string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	Root         string
}

// ReadEnvOverrides reads the PSCPM_* environment variables.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:   os.Getenv("PSCPM_CONFIG"),
		Server:       os.Getenv("PSCPM_SERVER"),
		Username:     os.Getenv("PSCPM_USERNAME"),
		Password:     os.Getenv("PSCPM_PASSWORD"),
		ClientID:     os.Getenv("PSCPM_CLIENT_ID"),
		ClientSecret: os.Getenv("PSCPM_CLIENT_SECRET"),
		Root:         os.Getenv("PSCPM_ROOT"),
	}
}

// applyEnv overlays non-empty environment values onto the config.
func applyEnv(cfg *Config, env EnvOverrides) {
	if env.Server != "" {
		cfg.Server.BaseURL = env.Server
	}

	if env.Username != "" {
		cfg.Session.Username = env.Username
	}

	if env.Password != "" {
		cfg.Session.Password = env.Password
	}

	if env.ClientID != "" {
		cfg.Token.ClientID = env.ClientID
	}

	if env.ClientSecret != "" {
		cfg.Token.ClientSecret = env.ClientSecret
	}

	if env.Root != "" {
		cfg.Local.Root = env.Root
	}
}
