package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/keyquota/pkg/observability"
	"github.com/platinummonkey/keyquota/pkg/quotas"
	"github.com/platinummonkey/keyquota/pkg/storage"
	"github.com/platinummonkey/keyquota/pkg/storage/postgres"
)

// Enforcement modes
const (
	ModeBestEffort = "best-effort"
	ModeStrict     = "strict"
)

// Locker backends for strict enforcement
const (
	LockerRedis    = "redis"
	LockerPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage storage.Config `yaml:"storage"`

	// Quotas holds the process-wide defaults applied to unconfigured resources
	Quotas quotas.Defaults `yaml:"quotas"`

	// Enforcement configuration
	Enforcement EnforcementConfig `yaml:"enforcement"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// BaseURL is the public root used in pagination links.
	// Derived from each request when empty.
	BaseURL string `yaml:"base_url"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// EnforcementConfig selects how concurrent creations are admitted
type EnforcementConfig struct {
	// Mode is best-effort (check only) or strict (lock held until the resource is persisted)
	Mode string `yaml:"mode"`
	// Locker is the strict-mode lock backend: redis or postgres
	Locker  string        `yaml:"locker"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Metrics
	MetricsEnabled  bool          `yaml:"metrics_enabled"`
	DBStatsInterval time.Duration `yaml:"db_stats_interval"`

	// OpenTelemetry
	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"` // Use insecure gRPC connection
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Level returns the parsed log level
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "9311",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			HealthPort:      "9090",
		},
		Storage: storage.DefaultConfig(),
		Quotas:  quotas.UnlimitedDefaults(),
		Enforcement: EnforcementConfig{
			Mode:    ModeBestEffort,
			Locker:  LockerRedis,
			LockTTL: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			DBStatsInterval:    15 * time.Second,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "keyquota",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1.0,
		},
	}
}

// LoadConfig loads configuration from defaults, the YAML file named by
// KEYQUOTA_CONFIG_FILE (if any) and KEYQUOTA_* environment variables, in
// increasing order of precedence.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := getEnv("KEYQUOTA_CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Server = loadServerConfig(cfg.Server)
	cfg.Storage = loadStorageConfig(cfg.Storage)
	cfg.Quotas = loadQuotaDefaults(cfg.Quotas)
	cfg.Enforcement = loadEnforcementConfig(cfg.Enforcement)
	cfg.Observability = loadObservabilityConfig(cfg.Observability)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path onto c
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig(cfg ServerConfig) ServerConfig {
	return ServerConfig{
		Host:            getEnv("KEYQUOTA_HOST", cfg.Host),
		Port:            getEnv("KEYQUOTA_PORT", cfg.Port),
		ReadTimeout:     getEnvDuration("KEYQUOTA_READ_TIMEOUT", cfg.ReadTimeout),
		WriteTimeout:    getEnvDuration("KEYQUOTA_WRITE_TIMEOUT", cfg.WriteTimeout),
		IdleTimeout:     getEnvDuration("KEYQUOTA_IDLE_TIMEOUT", cfg.IdleTimeout),
		ShutdownTimeout: getEnvDuration("KEYQUOTA_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout),
		MaxBodyBytes:    getEnvInt64("KEYQUOTA_MAX_BODY_BYTES", cfg.MaxBodyBytes),
		BaseURL:         getEnv("KEYQUOTA_BASE_URL", cfg.BaseURL),
		HealthPort:      getEnv("KEYQUOTA_HEALTH_PORT", cfg.HealthPort),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig(cfg storage.Config) storage.Config {
	cfg.Type = getEnv("KEYQUOTA_STORAGE_TYPE", cfg.Type)

	// PostgreSQL config
	cfg.PostgresURL = getEnv("KEYQUOTA_POSTGRES_URL", cfg.PostgresURL)
	if replicaURLs := getEnv("KEYQUOTA_POSTGRES_REPLICA_URLS", ""); replicaURLs != "" {
		cfg.PostgresReplicaURLs = postgres.ParseReplicaURLs(replicaURLs)
	}
	if maxConns := getEnvInt("KEYQUOTA_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("KEYQUOTA_POSTGRES_MIN_CONNS", -1); minConns >= 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("KEYQUOTA_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}
	cfg.PostgresMaxLifetime = getEnvDuration("KEYQUOTA_POSTGRES_MAX_LIFETIME", cfg.PostgresMaxLifetime)
	cfg.PostgresMaxIdleTime = getEnvDuration("KEYQUOTA_POSTGRES_MAX_IDLE_TIME", cfg.PostgresMaxIdleTime)

	// SQLite config
	cfg.SQLitePath = getEnv("KEYQUOTA_SQLITE_PATH", cfg.SQLitePath)
	cfg.EnsureSchema = getEnvBool("KEYQUOTA_ENSURE_SCHEMA", cfg.EnsureSchema)

	// Redis config
	cfg.RedisURL = getEnv("KEYQUOTA_REDIS_URL", cfg.RedisURL)
	cfg.RedisPassword = getEnv("KEYQUOTA_REDIS_PASSWORD", cfg.RedisPassword)
	if redisDB := getEnvInt("KEYQUOTA_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("KEYQUOTA_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("KEYQUOTA_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	return cfg
}

// loadQuotaDefaults loads the default quota of every resource from environment
func loadQuotaDefaults(d quotas.Defaults) quotas.Defaults {
	return quotas.Defaults{
		Secrets:       getEnvInt("KEYQUOTA_QUOTA_SECRETS", d.Secrets),
		Orders:        getEnvInt("KEYQUOTA_QUOTA_ORDERS", d.Orders),
		Containers:    getEnvInt("KEYQUOTA_QUOTA_CONTAINERS", d.Containers),
		TransportKeys: getEnvInt("KEYQUOTA_QUOTA_TRANSPORT_KEYS", d.TransportKeys),
		Consumers:     getEnvInt("KEYQUOTA_QUOTA_CONSUMERS", d.Consumers),
	}
}

// loadEnforcementConfig loads enforcement configuration from environment
func loadEnforcementConfig(cfg EnforcementConfig) EnforcementConfig {
	return EnforcementConfig{
		Mode:    strings.ToLower(getEnv("KEYQUOTA_ENFORCEMENT_MODE", cfg.Mode)),
		Locker:  strings.ToLower(getEnv("KEYQUOTA_ENFORCEMENT_LOCKER", cfg.Locker)),
		LockTTL: getEnvDuration("KEYQUOTA_LOCK_TTL", cfg.LockTTL),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig(cfg ObservabilityConfig) ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           getEnv("KEYQUOTA_LOG_LEVEL", cfg.LogLevel),
		MetricsEnabled:     getEnvBool("KEYQUOTA_METRICS_ENABLED", cfg.MetricsEnabled),
		DBStatsInterval:    getEnvDuration("KEYQUOTA_DB_STATS_INTERVAL", cfg.DBStatsInterval),
		OTelEnabled:        getEnvBool("KEYQUOTA_OTEL_ENABLED", cfg.OTelEnabled),
		OTelEndpoint:       getEnv("KEYQUOTA_OTEL_ENDPOINT", cfg.OTelEndpoint),
		OTelServiceName:    getEnv("KEYQUOTA_OTEL_SERVICE_NAME", cfg.OTelServiceName),
		OTelServiceVersion: getEnv("KEYQUOTA_OTEL_SERVICE_VERSION", cfg.OTelServiceVersion),
		OTelInsecure:       getEnvBool("KEYQUOTA_OTEL_INSECURE", cfg.OTelInsecure),
		OTelSampleRatio:    getEnvFloat("KEYQUOTA_OTEL_SAMPLE_RATIO", cfg.OTelSampleRatio),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	// Validate enforcement config
	switch c.Enforcement.Mode {
	case ModeBestEffort:
	case ModeStrict:
		switch c.Enforcement.Locker {
		case LockerRedis:
			if c.Storage.RedisURL == "" {
				return fmt.Errorf("redis URL is required for the redis locker")
			}
		case LockerPostgres:
			if c.Storage.Type != storage.TypePostgres {
				return fmt.Errorf("postgres locker requires postgres storage")
			}
		default:
			return fmt.Errorf("invalid locker: %q (must be %s or %s)", c.Enforcement.Locker, LockerRedis, LockerPostgres)
		}
		if c.Enforcement.LockTTL <= 0 {
			return fmt.Errorf("lock TTL must be positive")
		}
	default:
		return fmt.Errorf("invalid enforcement mode: %q (must be %s or %s)", c.Enforcement.Mode, ModeBestEffort, ModeStrict)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
