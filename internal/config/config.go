// Package config provides the runtime settings for the chat server: defaults,
// environment overlay, sanitizing and startup validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevSecret signs tokens when JWT_SECRET is unset outside production.
	// Anything signed with it must be considered public.
	DevSecret = "dev-insecure-secret-change-me"

	defaultPort          = ":3001"
	defaultTokenTTL      = 7 * 24 * time.Hour
	defaultBcryptCost    = 10
	defaultRateRequests  = 100
	defaultRateWindow    = 15 * time.Minute
	defaultShutdownGrace = 10 * time.Second
)

// Store drivers understood by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverGorm     = "gorm"
)

var ErrMissingSecret = errors.New("JWT_SECRET must be set when APP_ENV=production")

// Config holds the server settings. Field tags name the environment
// variables they are read from.
type Config struct {
	Env             string        `env:"APP_ENV,default=development"`
	Port            string        `env:"SERVER_PORT,default=:3001"`
	RawOrigins      string        `env:"ALLOWED_ORIGINS,default=*"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,default=168h"`
	BcryptCost      int           `env:"BCRYPT_COST,default=10"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=0"`
	StoreDriver     string        `env:"STORE_DRIVER,default=memory"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	BadgerPath      string        `env:"BADGER_PATH,default=./data/badger"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	// Per client IP cap on the REST API.
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS,default=100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`

	// AllowedOrigins is RawOrigins split and trimmed.
	AllowedOrigins []string

	// UsingDevSecret is set when JWTSecret was defaulted to DevSecret.
	UsingDevSecret bool
}

// Load reads an optional .env file, overlays the process environment and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) sanitize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = EnvDevelopment
	}

	if c.Port == "" {
		c.Port = defaultPort
	}
	if !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}

	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}

	if c.BcryptCost <= 0 {
		c.BcryptCost = defaultBcryptCost
	}

	if c.MaxMessageSize < 0 {
		c.MaxMessageSize = 0
	}

	if c.RateLimitRequests <= 0 {
		c.RateLimitRequests = defaultRateRequests
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = defaultRateWindow
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownGrace
	}

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if c.StoreDriver == "" {
		c.StoreDriver = DriverMemory
	}

	c.AllowedOrigins = parseOrigins(c.RawOrigins)

	if c.JWTSecret == "" && c.Env != EnvProduction {
		c.JWTSecret = DevSecret
		c.UsingDevSecret = true
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}

	switch c.StoreDriver {
	case DriverMemory, DriverBadger:
	case DriverPostgres, DriverGorm:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}

	return nil
}

// IsProduction reports whether APP_ENV selects production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func parseOrigins(origins string) []string {
	parts := lo.Map(strings.Split(origins, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(parts)
}
