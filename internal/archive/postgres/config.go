package postgres

import (
	"fmt"
	"time"
)

// Config carries the pgxpool connection and pool-sizing parameters.
// Adapted from the teacher's internal/database/postgres/config.go
// (PostgresConfig), trimmed to the fields the archive store needs.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// DefaultConfig returns connection defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              5432,
		Database:          "moldctl",
		User:              "moldctl",
		SSLMode:           "disable",
		MaxConns:          20,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
		ConnectTimeout:    10 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("archive/postgres: host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("archive/postgres: database is required")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("archive/postgres: max conns must be > 0")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("archive/postgres: min conns cannot exceed max conns")
	}
	return nil
}

// DSN returns the pgx connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
