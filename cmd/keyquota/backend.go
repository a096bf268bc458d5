package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/keyquota/pkg/config"
	"github.com/platinummonkey/keyquota/pkg/locks"
	"github.com/platinummonkey/keyquota/pkg/middleware"
	"github.com/platinummonkey/keyquota/pkg/observability"
	"github.com/platinummonkey/keyquota/pkg/quotas"
	"github.com/platinummonkey/keyquota/pkg/storage"
	"github.com/platinummonkey/keyquota/pkg/storage/postgres"
	"github.com/platinummonkey/keyquota/pkg/storage/sqlite"
)

// backend bundles the storage collaborators of the quota service
type backend struct {
	db       *sql.DB
	cm       *postgres.ConnectionManager
	repo     quotas.Repository
	projects middleware.ProjectResolver
	usage    quotas.UsageCounter
}

// Close releases the database connections
func (b *backend) Close() error {
	if b.cm != nil {
		return b.cm.Close()
	}
	return b.db.Close()
}

// openBackend connects the configured storage backend
func openBackend(ctx context.Context, cfg storage.Config, logger *observability.Logger) (*backend, error) {
	switch cfg.Type {
	case storage.TypePostgres:
		cm, err := postgres.NewConnectionManager(ctx, postgres.ConnectionConfigFromStorage(cfg), logger)
		if err != nil {
			return nil, err
		}
		primary := cm.Primary()
		if cfg.EnsureSchema {
			if err := postgres.EnsureSchema(ctx, primary); err != nil {
				cm.Close()
				return nil, err
			}
		}
		return &backend{
			db:       primary,
			cm:       cm,
			repo:     postgres.NewProjectQuotasRepositoryWithReplicas(cm),
			projects: postgres.NewProjectRepository(primary),
			usage:    postgres.NewUsageCounter(primary),
		}, nil

	case storage.TypeSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.EnsureSchema)
		if err != nil {
			return nil, err
		}
		return &backend{
			db:       db,
			repo:     sqlite.NewProjectQuotasRepository(db),
			projects: sqlite.NewProjectRepository(db),
			usage:    sqlite.NewUsageCounter(db),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// newLocker returns the Locker for strict enforcement, or nil in best-effort
// mode. The Redis client is returned so it can be health checked and closed.
func newLocker(ctx context.Context, cfg *config.Config, b *backend, logger *observability.Logger) (quotas.Locker, *redis.Client, error) {
	if cfg.Enforcement.Mode != config.ModeStrict {
		return nil, nil, nil
	}

	switch cfg.Enforcement.Locker {
	case config.LockerRedis:
		client, err := storage.NewRedisClient(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		return locks.NewRedisLocker(client, cfg.Enforcement.LockTTL, logger), client, nil
	case config.LockerPostgres:
		if b.cm == nil {
			return nil, nil, fmt.Errorf("postgres locker requires postgres storage")
		}
		pool, err := b.cm.LockPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewAdvisoryLocker(pool, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported locker: %s", cfg.Enforcement.Locker)
	}
}
