// Package config provides centralized configuration management for the
// validation server. Settings come from environment variables with defaults
// and are validated on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Load       LoadConfig
	Validation ValidationConfig
	Storage    StorageConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing the response (default: 0, validations can be slow)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining validations (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds run history settings.
//
// When URL is empty, history is kept in SQLite at SQLitePath.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is used when URL is empty (default: in memory)
	SQLitePath string `env:"SQLITE_PATH" default:":memory:"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// ErrorLimit caps the validation errors stored per run, 0 keeps all (default: 1000)
	ErrorLimit int `env:"DB_ERROR_LIMIT" default:"1000"`
}

// LoadConfig controls how tables are parsed.
type LoadConfig struct {
	// EmptyIntMeansZero treats a blank integer cell as 0 instead of missing (default: true)
	EmptyIntMeansZero bool `env:"LOAD_EMPTY_INT_ZERO" default:"true"`

	// SkipOnMissingColumns skips a table whose header lacks a required column (default: false)
	SkipOnMissingColumns bool `env:"LOAD_SKIP_ON_MISSING_COLUMNS" default:"false"`

	// ProgressInterval is the row count between progress log lines, negative disables (default: 500000)
	ProgressInterval int64 `env:"LOAD_PROGRESS_INTERVAL" default:"500000"`

	// MaxArchiveSize is the largest accepted archive in bytes (default: 200MB)
	MaxArchiveSize int64 `env:"LOAD_MAX_ARCHIVE_SIZE" default:"209715200"`
}

// ValidationConfig bounds validation work.
type ValidationConfig struct {
	// MaxConcurrent is the maximum number of parallel validations (default: 4)
	MaxConcurrent int `env:"VALIDATION_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a validation slot (default: 30s)
	MaxWaitTime time.Duration `env:"VALIDATION_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single validation (default: 10m)
	Timeout time.Duration `env:"VALIDATION_TIMEOUT" default:"10m"`
}

// StorageConfig holds S3 settings for s3:// feed locations.
type StorageConfig struct {
	// Region is the S3 region; empty disables S3 (default: empty)
	Region string `env:"S3_REGION" envAlt:"AWS_REGION"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO
	Endpoint string `env:"S3_ENDPOINT"`

	// PathStyle forces path-style addressing (default: false)
	PathStyle bool `env:"S3_PATH_STYLE" default:"false"`

	// AccessKeyID and SecretAccessKey are static credentials; when empty the
	// default AWS credential chain is used.
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

// Enabled reports whether S3 locations can be validated.
func (c *StorageConfig) Enabled() bool {
	return c.Region != ""
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ValidateLimit is requests per minute for the validate endpoint (default: 10)
	ValidateLimit int `env:"RATE_LIMIT_VALIDATE" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the validate endpoint with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}
