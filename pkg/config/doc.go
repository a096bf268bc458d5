// Package config provides application configuration management from environment
// variables and an optional YAML file.
//
// # Overview
//
// Defaults are overlaid by the YAML file named in KEYQUOTA_CONFIG_FILE, then by
// KEYQUOTA_* environment variables. The result is validated once at startup.
//
// # Configuration Structure
//
// Server settings:
//
//	KEYQUOTA_HOST="0.0.0.0"
//	KEYQUOTA_PORT="9311"
//	KEYQUOTA_HEALTH_PORT="9090"
//	KEYQUOTA_BASE_URL="https://keys.example.com"
//
// Storage settings:
//
//	KEYQUOTA_STORAGE_TYPE="postgres"  # postgres, sqlite
//	KEYQUOTA_POSTGRES_URL="postgres://localhost/barbican"
//	KEYQUOTA_POSTGRES_REPLICA_URLS="postgres://replica1/barbican,postgres://replica2/barbican"
//	KEYQUOTA_SQLITE_PATH="keyquota.db"
//	KEYQUOTA_REDIS_URL="redis://localhost:6379"
//
// Quota defaults (-1 is unlimited):
//
//	KEYQUOTA_QUOTA_SECRETS="-1"
//	KEYQUOTA_QUOTA_ORDERS="-1"
//	KEYQUOTA_QUOTA_CONTAINERS="-1"
//	KEYQUOTA_QUOTA_TRANSPORT_KEYS="-1"
//	KEYQUOTA_QUOTA_CONSUMERS="-1"
//
// Enforcement:
//
//	KEYQUOTA_ENFORCEMENT_MODE="best-effort"  # best-effort, strict
//	KEYQUOTA_ENFORCEMENT_LOCKER="redis"      # redis, postgres
//	KEYQUOTA_LOCK_TTL="10s"
//
// Observability:
//
//	KEYQUOTA_LOG_LEVEL="info"
//	KEYQUOTA_METRICS_ENABLED="true"
//	KEYQUOTA_OTEL_ENABLED="false"
//	KEYQUOTA_OTEL_ENDPOINT="localhost:4317"
//
// The same settings in YAML:
//
//	storage:
//	  type: sqlite
//	  sqlite_path: /var/lib/keyquota/keyquota.db
//	quotas:
//	  orders: 100
//	enforcement:
//	  mode: strict
//	  locker: redis
package config
