// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string        `env:"STREETPASS_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	StoreBackend      string        `env:"STREETPASS_STORE_BACKEND" envDefault:"sqlite"`
	DBPath            string        `env:"STREETPASS_DB_PATH" envDefault:"streetpass.db"`
	RedisAddr         string        `env:"STREETPASS_REDIS_ADDR"`
	RedisPrefix       string        `env:"STREETPASS_REDIS_PREFIX" envDefault:"streetpass"`
	HTTPTimeout       time.Duration `env:"STREETPASS_HTTP_TIMEOUT" envDefault:"15s"`
	HTTPCacheEntries  int           `env:"STREETPASS_HTTP_CACHE_ENTRIES" envDefault:"512"`
	BlueskyAPIURL     string        `env:"STREETPASS_BLUESKY_API_URL" envDefault:"https://public.api.bsky.app"`
	RefreshInterval   time.Duration `env:"STREETPASS_REFRESH_INTERVAL" envDefault:"0s"`
	RefreshStaleAfter time.Duration `env:"STREETPASS_REFRESH_STALE_AFTER" envDefault:"24h"`
}

// UsesRedis reports whether href and icon state live in Redis rather than SQLite.
func (c *Config) UsesRedis() bool {
	return c.StoreBackend == BackendRedis
}

// Load reads configuration from environment variables and returns a validated Config.
// Every variable is optional; see the struct tags for defaults. The redis
// backend additionally requires STREETPASS_REDIS_ADDR.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("STREETPASS_DB_PATH must not be empty")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("STREETPASS_REDIS_ADDR is required when STREETPASS_STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("STREETPASS_STORE_BACKEND has invalid value %q (want %s or %s)",
			c.StoreBackend, BackendSQLite, BackendRedis)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("STREETPASS_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.HTTPCacheEntries <= 0 {
		return fmt.Errorf("STREETPASS_HTTP_CACHE_ENTRIES must be positive, got %d", c.HTTPCacheEntries)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("STREETPASS_REFRESH_INTERVAL must not be negative, got %s", c.RefreshInterval)
	}
	if c.RefreshStaleAfter < 0 {
		return fmt.Errorf("STREETPASS_REFRESH_STALE_AFTER must not be negative, got %s", c.RefreshStaleAfter)
	}

	return nil
}
