// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor
// principles; an optional .env file is read first for local runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Authentication modes.
const (
	AuthModeOIDC = "oidc"
	AuthModeHMAC = "hmac"
)

// minHMACSecretLength is the shortest HS256 secret accepted (256 bits).
const minHMACSecretLength = 32

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings. AppEnv gates destructive admin operations, so it
	// defaults to production.
	AppEnv  string `env:"APP_ENV" envDefault:"production"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL     string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseMaxConn int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConn int32  `env:"DATABASE_MIN_CONNS" envDefault:"2"`

	// Cache (Redis). Optional: without it rate limits are kept in memory.
	RedisURL string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Token verification
	AuthMode              string `env:"AUTH_MODE" envDefault:"oidc"`
	OIDCIssuerURL         string `env:"OIDC_ISSUER_URL"`
	OIDCClientID          string `env:"OIDC_CLIENT_ID"`
	OIDCSkipClientIDCheck bool   `env:"OIDC_SKIP_CLIENT_ID_CHECK" envDefault:"false"`
	JWTHMACSecret         string `env:"JWT_HMAC_SECRET"`
	JWTIssuer             string `env:"JWT_ISSUER"`
	AdminRole             string `env:"ADMIN_ROLE" envDefault:"admin"`
	ProvisioningEnabled   bool   `env:"PROVISIONING_ENABLED" envDefault:"true"`

	// Rate limiting, per authenticated subject
	RateLimitEnabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerMinute int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	RateLimitBurst     int  `env:"RATE_LIMIT_BURST" envDefault:"30"`
	RateLimitMaxKeys   int  `env:"RATE_LIMIT_MAX_KEYS" envDefault:"10000"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,*.example.org")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment reports whether the service runs in development mode.
// The comparison ignores case so "Development" and "development" agree.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// CORSOrigins parses the comma-separated origins string into a slice.
func (c *Config) CORSOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate checks settings whose validity depends on other settings.
func (c *Config) Validate() error {
	var errs []error

	if c.AppPort < 1 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT %d out of range", c.AppPort))
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}

	switch c.AuthMode {
	case AuthModeOIDC:
		if c.OIDCIssuerURL == "" {
			errs = append(errs, errors.New("OIDC_ISSUER_URL is required when AUTH_MODE=oidc"))
		}
		if c.OIDCClientID == "" && !c.OIDCSkipClientIDCheck {
			errs = append(errs, errors.New("OIDC_CLIENT_ID is required unless OIDC_SKIP_CLIENT_ID_CHECK=true"))
		}
	case AuthModeHMAC:
		if len(c.JWTHMACSecret) < minHMACSecretLength {
			errs = append(errs, fmt.Errorf("JWT_HMAC_SECRET must be at least %d bytes when AUTH_MODE=hmac", minHMACSecretLength))
		}
		if c.IsProduction() {
			errs = append(errs, errors.New("AUTH_MODE=hmac is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be %s or %s, got %q", AuthModeOIDC, AuthModeHMAC, c.AuthMode))
	}

	if c.AdminRole == "" {
		errs = append(errs, errors.New("ADMIN_ROLE must not be empty"))
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 || c.RateLimitMaxKeys < 1 {
		errs = append(errs, errors.New("rate limit settings must be non-negative and RATE_LIMIT_MAX_KEYS positive"))
	}
	if c.DatabaseMinConn > c.DatabaseMaxConn {
		errs = append(errs, errors.New("DATABASE_MIN_CONNS exceeds DATABASE_MAX_CONNS"))
	}

	return errors.Join(errs...)
}

// Load reads the optional env files (".env" when none are given), then
// parses and validates the environment. Variables already set in the
// process environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
