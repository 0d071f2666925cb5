// Package config provides centralized configuration for the service. All
// settings load from environment variables with defaults and are validated
// on startup so misconfiguration fails fast.
package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Auth     AuthConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required).
	// Supports both DATABASE_URL and DB_URL for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum pool size (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum pool size (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the idle timeout before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds enrollment upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// Dir is the root directory for archived raw uploads (default: data/blobs)
	Dir string `env:"UPLOAD_DIR" default:"data/blobs"`
}

// AuthConfig holds authentication settings. The auth provider is external;
// this service only maps opaque bearer tokens to user identifiers.
type AuthConfig struct {
	// Tokens is a comma-separated list of token:userID pairs.
	Tokens []string `env:"AUTH_TOKENS"`

	// Disabled turns auth off for local development; every request then
	// runs as DevUser.
	Disabled bool `env:"AUTH_DISABLED" default:"false"`

	// DevUser is the user identifier assumed when auth is disabled.
	DevUser string `env:"AUTH_DEV_USER" default:"dev"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadPerMinute is the stricter limit for the upload endpoint (default: 10)
	UploadPerMinute int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + itoa(c.Port)
}

// TokenUsers parses the Tokens list into a token -> userID map. Entries
// that failed validation never reach here.
func (c *AuthConfig) TokenUsers() map[string]string {
	users := make(map[string]string, len(c.Tokens))
	for _, entry := range c.Tokens {
		token, user, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		users[strings.TrimSpace(token)] = strings.TrimSpace(user)
	}
	return users
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
