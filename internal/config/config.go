// Package config loads moldctl's runtime configuration the way the
// teacher's internal/config/config.go did: github.com/spf13/viper with
// defaults set before a config file and environment variables are
// layered on top. The teacher's deployment-profile split (Lite:
// embedded storage, Standard: Postgres+Redis, TN-200) maps directly
// onto moldctl's own two archive backends, so that shape is kept; the
// alert-history-specific sections (LLM, webhook, lock) are dropped
// since moldctl has no equivalent concern.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is moldctl's fully resolved runtime configuration.
type Config struct {
	// Profile selects the archive backend: "lite" (embedded SQLite,
	// single-node) or "standard" (Postgres+Redis, HA).
	Profile DeploymentProfile `mapstructure:"profile"`

	Archive ArchiveConfig `mapstructure:"archive"`
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Cache   CacheConfig   `mapstructure:"cache"`
	App     AppConfig     `mapstructure:"app"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// DeploymentProfile selects moldctl's archive backend.
type DeploymentProfile string

const (
	// ProfileLite stores the archive in an embedded SQLite file. No
	// external dependencies. Use case: CLI use, single-node serve,
	// small entry volumes.
	ProfileLite DeploymentProfile = "lite"

	// ProfileStandard stores the archive in Postgres, fronted by the
	// two-tier resolution cache's Redis L2. Use case: moldserve run as
	// a shared, horizontally-scaled service.
	ProfileStandard DeploymentProfile = "standard"
)

// ArchiveConfig holds archive.Store backend configuration.
type ArchiveConfig struct {
	// Backend mirrors Profile: "sqlite" or "postgres".
	Backend ArchiveBackend `mapstructure:"backend"`

	// SQLitePath is the database file for the Lite profile.
	SQLitePath string `mapstructure:"sqlite_path"`

	// WriteRPS throttles archive.Store.Put under golang.org/x/time/rate.
	WriteRPS float64 `mapstructure:"write_rps"`

	Postgres PostgresConfig `mapstructure:"postgres"`
}

// ArchiveBackend names the archive.Store implementation.
type ArchiveBackend string

const (
	ArchiveBackendSQLite   ArchiveBackend = "sqlite"
	ArchiveBackendPostgres ArchiveBackend = "postgres"
)

// PostgresConfig mirrors internal/archive/postgres.Config's fields for
// viper binding; cmd/moldctl copies these into that package's Config.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// ServerConfig holds moldserve's HTTP server configuration.
type ServerConfig struct {
	Port                    int           `mapstructure:"port"`
	Host                    string        `mapstructure:"host"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// RedisConfig holds the resolution cache's L2 tier configuration.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// LogConfig holds pkg/moldlog's handler configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig holds pkg/moldcache's L1/L2 sizing.
type CacheConfig struct {
	L1Size int           `mapstructure:"l1_size"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// AppConfig holds process-wide identification fields.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// MetricsConfig holds the /metrics endpoint's exposure settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig loads configuration from an optional YAML file layered
// under environment variables (MOLDCTL_SERVER_PORT, etc.), the same
// precedence order as the teacher's LoadConfig.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("moldctl")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", "lite")

	v.SetDefault("archive.backend", "sqlite")
	v.SetDefault("archive.sqlite_path", "moldctl-archive.db")
	v.SetDefault("archive.write_rps", 50.0)
	v.SetDefault("archive.postgres.host", "localhost")
	v.SetDefault("archive.postgres.port", 5432)
	v.SetDefault("archive.postgres.database", "moldctl")
	v.SetDefault("archive.postgres.username", "moldctl")
	v.SetDefault("archive.postgres.password", "")
	v.SetDefault("archive.postgres.ssl_mode", "disable")
	v.SetDefault("archive.postgres.max_connections", 25)
	v.SetDefault("archive.postgres.min_connections", 2)
	v.SetDefault("archive.postgres.max_conn_lifetime", "1h")
	v.SetDefault("archive.postgres.connect_timeout", "10s")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.graceful_shutdown_timeout", "15s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.min_retry_backoff", "100ms")
	v.SetDefault("redis.max_retry_backoff", "500ms")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cache.l1_size", 4096)
	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("app.name", "moldctl")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks invariants LoadConfig can't express through viper
// defaults alone.
func (c *Config) Validate() error {
	if c.Profile != ProfileLite && c.Profile != ProfileStandard {
		return fmt.Errorf("invalid profile: %s (must be 'lite' or 'standard')", c.Profile)
	}

	switch c.Profile {
	case ProfileLite:
		if c.Archive.Backend != ArchiveBackendSQLite {
			return fmt.Errorf("lite profile requires archive.backend='sqlite' (got %q)", c.Archive.Backend)
		}
		if c.Archive.SQLitePath == "" {
			return fmt.Errorf("lite profile requires archive.sqlite_path")
		}
	case ProfileStandard:
		if c.Archive.Backend != ArchiveBackendPostgres {
			return fmt.Errorf("standard profile requires archive.backend='postgres' (got %q)", c.Archive.Backend)
		}
		if c.Archive.Postgres.Database == "" {
			return fmt.Errorf("standard profile requires archive.postgres.database")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Log.Level == "" {
		return fmt.Errorf("log level cannot be empty")
	}

	return nil
}

// IsStandardProfile reports whether the Redis-backed L2 cache tier
// and the Postgres archive backend should be wired.
func (c *Config) IsStandardProfile() bool {
	return c.Profile == ProfileStandard
}
