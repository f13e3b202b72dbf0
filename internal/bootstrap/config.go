package bootstrap

import (
	"errors"
	"fmt"

	"github.com/go-authgate/screenpair/internal/config"
)

const (
	defaultSessionSecret = "session-secret-change-in-production"
	minSessionSecretLen  = 32
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateSessionConfig(cfg); err != nil {
		return fmt.Errorf("invalid session configuration: %w", err)
	}
	if err := validateRateLimitConfig(cfg); err != nil {
		return fmt.Errorf("invalid rate limit configuration: %w", err)
	}
	return nil
}

// validateSessionConfig rejects the built-in session secret in production
func validateSessionConfig(cfg *config.Config) error {
	if !cfg.IsProduction {
		return nil
	}
	if cfg.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be changed in production")
	}
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}
	return nil
}

// validateRateLimitConfig checks per-endpoint throttling limits when throttling is on
func validateRateLimitConfig(cfg *config.Config) error {
	if !cfg.EnableRateLimit {
		return nil
	}
	limits := map[string]int{
		"LOGIN_RATE_LIMIT":    cfg.LoginRateLimit,
		"ACTIVATE_RATE_LIMIT": cfg.ActivateRateLimit,
		"PLAYER_RATE_LIMIT":   cfg.PlayerRateLimit,
	}
	for name, limit := range limits {
		if limit <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, limit)
		}
	}
	return nil
}
