// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. Outside production a
local .env file is loaded first so that development setups need no exports.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Both binaries (cmd/api and cmd/proxy) share this struct; each reads the
fields it needs.
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend names accepted by STORE_BACKEND and CACHE_BACKEND.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"3001"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// LogFile enables an additional rotated JSON log file.
	LogFile string `env:"LOG_FILE"`

	// Document store (cmd/api)
	StoreBackend    string `env:"STORE_BACKEND"    envDefault:"file"`
	DataDir         string `env:"DATA_DIR"         envDefault:"./data"`
	BackupRetention int    `env:"BACKUP_RETENTION" envDefault:"10"`

	// Relational Database (PostgreSQL), used when a backend is "postgres".
	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value Cache (Redis), used when a backend is "redis".
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Guestbook policy
	SettingsSeedPath  string `env:"SETTINGS_SEED_PATH"`
	InvitationBaseURL string `env:"INVITATION_BASE_URL" envDefault:"index.html"`
	CommentMinLength  int    `env:"COMMENT_MIN_LENGTH"  envDefault:"1"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000,http://localhost:8080"`

	// Offline proxy (cmd/proxy)
	ProxyPort        string        `env:"PROXY_PORT"        envDefault:"3002"`
	UpstreamURL      string        `env:"UPSTREAM_URL"      envDefault:"http://localhost:3001"`
	UpstreamTimeout  time.Duration `env:"UPSTREAM_TIMEOUT"  envDefault:"5s"`
	UpstreamRetries  int           `env:"UPSTREAM_RETRIES"  envDefault:"2"`
	CacheBackend     string        `env:"CACHE_BACKEND"     envDefault:"file"`
	CacheDir         string        `env:"CACHE_DIR"         envDefault:"./cache"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	ProbeInterval    time.Duration `env:"PROBE_INTERVAL"    envDefault:"15s"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Pick up a local .env outside production; a missing file is not an error.
	if os.Getenv("ENVIRONMENT") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("dotenv_load_failed", slog.Any("error", err))
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces cross-field rules that struct tags cannot express.
func (c *Config) validate() error {
	for _, backend := range []string{c.StoreBackend, c.CacheBackend} {
		switch backend {
		case BackendFile, BackendRedis, BackendPostgres, BackendMemory:
		default:
			return fmt.Errorf("config: unknown backend %q", backend)
		}
	}

	if (c.StoreBackend == BackendPostgres || c.CacheBackend == BackendPostgres) && c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required for the postgres backend")
	}

	if c.CommentMinLength < 1 {
		return errors.New("config: COMMENT_MIN_LENGTH must be at least 1")
	}

	if c.UpstreamRetries < 0 {
		return errors.New("config: UPSTREAM_RETRIES must not be negative")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Origins returns the CORS allow-list.
func (c *Config) Origins() []string {
	return c.AllowedOrigins
}
