package config

import "time"

// Store backends.
const (
	BackendHosted   = "hosted"
	BackendPostgres = "postgres"
)

// Realtime change sources.
const (
	SourceHosted   = "hosted"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Hosted   HostedConfig   `mapstructure:"hosted"   validate:"required"`
	Store    StoreConfig    `mapstructure:"store"    validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error fatal"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown window.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// HostedConfig points at the hosted data service that owns persistence,
// authentication and change notification.
type HostedConfig struct {
	URL            string `mapstructure:"url"             validate:"required,url"`
	AnonKey        string `mapstructure:"anon_key"        validate:"required"`
	ServiceKey     string `mapstructure:"service_key"`
	JWTSecret      string `mapstructure:"jwt_secret"      validate:"omitempty,min=32"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
	Schema         string `mapstructure:"schema"          validate:"required"`
	Table          string `mapstructure:"table"           validate:"required"`
}

// Timeout returns the per-request timeout for the hosted service.
func (c HostedConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StoreConfig selects where tasks are read from and written to.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=hosted postgres"`
}

// DatabaseConfig contains settings for direct Postgres access.
// It is only required when the postgres store backend or change source is used.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	// RLSRole, when set, is assumed with SET LOCAL ROLE for every store
	// transaction so row-level security policies apply as they would over
	// the REST API (typically "authenticated").
	RLSRole string `mapstructure:"rls_role" validate:"omitempty,printascii"`
}

// CacheConfig bounds the per-user task list cache.
type CacheConfig struct {
	Size       int `mapstructure:"size"        validate:"gt=0"`
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"gt=0"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RealtimeConfig controls the change-notification subscription.
type RealtimeConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Source           string `mapstructure:"source"            validate:"required_if=Enabled true,omitempty,oneof=hosted postgres"`
	ReconnectSeconds int    `mapstructure:"reconnect_seconds" validate:"gte=0"`
	HeartbeatSeconds int    `mapstructure:"heartbeat_seconds" validate:"gte=0"`
}

// ReconnectDelay returns the pause between subscription attempts.
func (c RealtimeConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectSeconds) * time.Second
}

// HeartbeatInterval returns how often the realtime socket is pinged.
func (c RealtimeConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// AuthConfig contains session and login-throttling settings.
// Credential checks themselves are performed by the hosted service.
type AuthConfig struct {
	LoginRatePerMinute int    `mapstructure:"login_rate_per_minute" validate:"gt=0"`
	LoginBurst         int    `mapstructure:"login_burst"           validate:"gt=0"`
	SessionCookie      string `mapstructure:"session_cookie"        validate:"required"`
	SecureCookies      bool   `mapstructure:"secure_cookies"`
}
