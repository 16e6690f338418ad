package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres, StorageSQLite:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("storage.database_url is required for driver %q", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, postgres, sqlite", c.Storage.Driver))
	}

	if c.Chat.StaleAfter <= 0 {
		errs = append(errs, errors.New("chat.stale_after must be positive"))
	}
	if c.Chat.TypingWindow <= 0 {
		errs = append(errs, errors.New("chat.typing_window must be positive"))
	}
	if c.Chat.RecentLimit < 1 || c.Chat.RecentLimit > 50 {
		errs = append(errs, errors.New("chat.recent_limit must be within 1..50"))
	}
	if _, err := time.LoadLocation(c.Chat.TimestampLocation); err != nil {
		errs = append(errs, fmt.Errorf("chat.timestamp_location: %w", err))
	}

	if c.RateLimit.PostsPerSecond < 0 {
		errs = append(errs, errors.New("rate_limit.posts_per_second must not be negative"))
	}
	if c.RateLimit.PostsPerSecond > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.burst must be at least 1"))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	return errors.Join(errs...)
}

// Location returns the zone used to render message timestamps.
func (c ChatConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimestampLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}
