package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "TASKBOARD"

	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "taskboard.yaml"
)

// keys lists every configuration key so that environment variables are
// picked up by Unmarshal even when no file or default mentions them.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout_seconds",
	"hosted.url",
	"hosted.anon_key",
	"hosted.service_key",
	"hosted.jwt_secret",
	"hosted.timeout_seconds",
	"hosted.schema",
	"hosted.table",
	"store.backend",
	"database.url",
	"database.max_open_conns",
	"database.rls_role",
	"cache.size",
	"cache.ttl_seconds",
	"realtime.enabled",
	"realtime.source",
	"realtime.reconnect_seconds",
	"realtime.heartbeat_seconds",
	"auth.login_rate_per_minute",
	"auth.login_burst",
	"auth.session_cookie",
	"auth.secure_cookies",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("hosted.timeout_seconds", 30)
	v.SetDefault("hosted.schema", "public")
	v.SetDefault("hosted.table", "tasks")
	v.SetDefault("store.backend", BackendHosted)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl_seconds", 60)
	v.SetDefault("realtime.enabled", true)
	v.SetDefault("realtime.source", SourceHosted)
	v.SetDefault("realtime.reconnect_seconds", 5)
	v.SetDefault("realtime.heartbeat_seconds", 30)
	v.SetDefault("auth.login_rate_per_minute", 10)
	v.SetDefault("auth.login_burst", 5)
	v.SetDefault("auth.session_cookie", "taskboard_session")
	v.SetDefault("auth.secure_cookies", false)
}

// Load configuration from environment variables and optionally the default
// config file in the working directory.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path falls back to
// DefaultConfigFile when it exists; an explicit path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-section rules that tags cannot
// express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	needsDatabase := cfg.Store.Backend == BackendPostgres ||
		(cfg.Realtime.Enabled && cfg.Realtime.Source == SourcePostgres)
	if needsDatabase && cfg.Database.URL == "" {
		return fmt.Errorf("config validation failed: %w", ErrDatabaseURLRequired)
	}
	return nil
}

// ErrDatabaseURLRequired is returned when a postgres-backed component is
// selected without a database URL.
var ErrDatabaseURLRequired = errors.New("database.url is required for the postgres backend or change source")
