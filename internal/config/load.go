package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRoot       = "ps_webroot"
	defaultStrategy   = "session"
	defaultLogLevel   = "info"
	defaultTimeoutStr = "30s"
)

// DefaultConfig returns a Config populated with defaults. The session
// strategy is the default because it is the only flow every server version
// supports out of the box.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			AuthStrategy: defaultStrategy,
			Timeout:      defaultTimeoutStr,
		},
		Local:   LocalConfig{Root: defaultRoot},
		Logging: LoggingConfig{Level: defaultLogLevel},
	}
}

// Load reads and parses a TOML config file, rejects unknown keys, and
// validates the result. Unknown keys are fatal — silently ignoring a typo in
// a credentials file leads to hard-to-debug auth failures.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns the
// defaults so environment variables alone can configure a run.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// The result is validated; a bad combination (e.g. token strategy without a
// client ID) fails here with remediation text, before any remote call.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	applyEnv(cfg, env)

	if cli.Server != "" {
		cfg.Server.BaseURL = cli.Server
	}

	if cli.Root != "" {
		cfg.Local.Root = cli.Root
	}

	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
