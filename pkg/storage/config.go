package storage

import (
	"fmt"
	"time"
)

// Backend types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Config for the storage backend
type Config struct {
	Type string `yaml:"type"` // "postgres" or "sqlite"

	// PostgreSQL config
	PostgresURL         string        `yaml:"postgres_url"`
	PostgresReplicaURLs []string      `yaml:"postgres_replica_urls"`
	PostgresMaxConns    int           `yaml:"postgres_max_conns"`
	PostgresMinConns    int           `yaml:"postgres_min_conns"`
	PostgresTimeout     time.Duration `yaml:"postgres_timeout"`
	PostgresMaxLifetime time.Duration `yaml:"postgres_max_lifetime"`
	PostgresMaxIdleTime time.Duration `yaml:"postgres_max_idle_time"`

	// SQLite config
	SQLitePath string `yaml:"sqlite_path"`

	// EnsureSchema creates the quota and project tables on startup
	EnsureSchema bool `yaml:"ensure_schema"`

	// Redis config, only needed by the Redis quota locker
	RedisURL        string `yaml:"redis_url"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	RedisMaxRetries int    `yaml:"redis_max_retries"`
	RedisPoolSize   int    `yaml:"redis_pool_size"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:                TypePostgres,
		PostgresMaxConns:    20,
		PostgresMinConns:    2,
		PostgresTimeout:     10 * time.Second,
		PostgresMaxLifetime: time.Hour,
		PostgresMaxIdleTime: 10 * time.Minute,
		SQLitePath:          "keyquota.db",
		RedisDB:             0,
		RedisMaxRetries:     3,
		RedisPoolSize:       10,
	}
}

// Validate checks the configuration for the selected backend
func (c Config) Validate() error {
	switch c.Type {
	case TypePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
		if c.PostgresMaxConns <= 0 {
			return fmt.Errorf("postgres max connections must be positive")
		}
		if c.PostgresMinConns < 0 || c.PostgresMinConns > c.PostgresMaxConns {
			return fmt.Errorf("postgres min connections must be between 0 and max connections")
		}
	case TypeSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %q (must be %s or %s)", c.Type, TypePostgres, TypeSQLite)
	}
	return nil
}
