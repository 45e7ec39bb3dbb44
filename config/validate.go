package config

import (
	"github.com/pkg/errors"
)

const developmentJWTSecret = "restaurant-backoffice-dev-secret"

// Validate checks the loaded configuration. A missing JWT secret is only tolerated
// outside release mode, where a fixed development secret is used instead.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return errors.Errorf("unsupported DB_DRIVER %q (want mysql or sqlite)", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		if c.App.GinMode == "release" {
			return errors.New("JWT_SECRET must be set in release mode")
		}
		c.JWT.Secret = developmentJWTSecret
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.App.RateLimitRPS < 0 || c.App.RateLimitBurst < 0 {
		return errors.New("rate limit settings must not be negative")
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return errors.New("REDIS_TTL must be positive when REDIS_ADDR is set")
	}
	return nil
}
