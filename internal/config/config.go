// Package config loads server settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when present.
const DefaultEnvFile = ".env"

// Config holds every server setting.
type Config struct {
	Addr        string `env:"ADDR,default=:8080"`
	DatabaseURL string `env:"DATABASE_URL,default=sqlite:./data/splitledger.db"`
	StaticPath  string `env:"STATIC_PATH,default=./static"`

	// JWTSecret signs session tokens. When empty a random secret is
	// generated, so tokens do not survive a restart.
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`

	BcryptCost int `env:"BCRYPT_COST,default=10"`

	// OpTimeout bounds each ledger operation.
	OpTimeout time.Duration `env:"OP_TIMEOUT,default=5s"`

	// AuthRatePerMinute limits register and login per client; 0 disables.
	AuthRatePerMinute int `env:"AUTH_RATE_PER_MINUTE,default=30"`

	LegacyAPI bool `env:"LEGACY_API,default=true"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load reads envFile into the process environment if it exists, then
// decodes the environment into a Config. Variables already set win over
// the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("ADDR must not be empty")
	case c.DatabaseURL == "":
		return errors.New("DATABASE_URL must not be empty")
	case c.TokenTTL <= 0:
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	case c.OpTimeout <= 0:
		return fmt.Errorf("OP_TIMEOUT must be positive, got %s", c.OpTimeout)
	case c.AuthRatePerMinute < 0:
		return fmt.Errorf("AUTH_RATE_PER_MINUTE must not be negative, got %d", c.AuthRatePerMinute)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// EnsureJWTSecret generates a secret when none is configured.
func (c *Config) EnsureJWTSecret() error {
	if c.JWTSecret != "" {
		return nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	c.JWTSecret = hex.EncodeToString(buf)
	slog.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	return nil
}
