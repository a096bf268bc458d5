// Package storage holds the backend-neutral storage configuration of the
// quota service and the Redis client used by the strict-mode locker.
//
// # Backends
//
// Two backends implement quotas.Repository, quotas.UsageCounter and the
// project resolver:
//
//   - postgres (pkg/storage/postgres): production backend with optional read
//     replicas for admin listings and advisory locks for strict enforcement
//   - sqlite (pkg/storage/sqlite): single-node and development backend
//
// The backend is chosen by Config.Type:
//
//	cfg := storage.DefaultConfig()
//	cfg.Type = storage.TypeSQLite
//	cfg.SQLitePath = "/var/lib/keyquota/keyquota.db"
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// # Redis
//
// Redis is optional. It is only dialled when enforcement runs in strict mode
// with the redis locker:
//
//	client, err := storage.NewRedisClient(ctx, cfg)
//	locker := locks.NewRedisLocker(client, 10*time.Second, logger)
//
// # Schema
//
// With EnsureSchema set the backends create the projects and project_quotas
// tables on startup. The resource tables (secrets, orders, containers,
// transport_keys, container_consumer_metadata) belong to the resource
// services and are only read when counting usage.
package storage
