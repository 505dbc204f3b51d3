package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrConfig marks configuration problems. They are fatal and never retried:
// the operator must fix the config, so every message carries remediation
// text. Check with errors.Is(err, config.ErrConfig).
var ErrConfig = errors.New("config: invalid configuration")

// Validate checks the resolved configuration. Credential presence is
// validated against the active strategy here, not at call sites, so a
// missing secret surfaces once with a clear message instead of as a remote
// 401.
func Validate(cfg *Config) error {
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("%w: server base URL is not set — set server.base_url or PSCPM_SERVER", ErrConfig)
	}

	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: server base URL %q is not a valid URL", ErrConfig, cfg.Server.BaseURL)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%w: server base URL must be http(s), got %q", ErrConfig, u.Scheme)
	}

	switch cfg.Server.AuthStrategy {
	case "session":
		return validateSession(cfg)
	case "token":
		return validateToken(cfg)
	case "hybrid":
		if err := validateSession(cfg); err != nil {
			return err
		}

		return validateToken(cfg)
	default:
		return fmt.Errorf("%w: auth_strategy %q is not one of session, token, hybrid", ErrConfig, cfg.Server.AuthStrategy)
	}
}

func validateSession(cfg *Config) error {
	if cfg.Session.Username == "" || cfg.Session.Password == "" {
		return fmt.Errorf("%w: %s strategy needs session credentials — set session.username/session.password or PSCPM_USERNAME/PSCPM_PASSWORD",
			ErrConfig, cfg.Server.AuthStrategy)
	}

	return validateTimeout(cfg)
}

func validateToken(cfg *Config) error {
	if cfg.Token.ClientID == "" || cfg.Token.ClientSecret == "" {
		return fmt.Errorf("%w: %s strategy needs OAuth credentials — configure token.client_id/token.client_secret or PSCPM_CLIENT_ID/PSCPM_CLIENT_SECRET",
			ErrConfig, cfg.Server.AuthStrategy)
	}

	return validateTimeout(cfg)
}

func validateTimeout(cfg *Config) error {
	if cfg.Server.Timeout == "" {
		return nil
	}

	d, err := time.ParseDuration(cfg.Server.Timeout)
	if err != nil {
		return fmt.Errorf("%w: server.timeout %q is not a duration (e.g. \"30s\")", ErrConfig, cfg.Server.Timeout)
	}

	if d <= 0 {
		return fmt.Errorf("%w: server.timeout must be positive and finite", ErrConfig)
	}

	return nil
}
