// Package quotas implements per-project resource quotas.
//
// # Overview
//
// A project may have a configured override for each constrained resource
// type (secrets, orders, containers, transport_keys, consumers). The
// effective quota of a resource is the configured value when set, otherwise
// the process-wide default. Any value at or below -1 means unlimited.
//
// # Store
//
//	store := quotas.NewStore(repo, defaults, quotas.WithRecorder(metrics))
//	err := store.SetProjectQuotas(ctx, "acme", quotas.ProjectQuotas{Orders: quotas.IntPtr(2)})
//	eq, err := store.GetEffectiveQuotas(ctx, "acme")
//
// GetProjectQuotas returns nil when a project has no configuration.
// DeleteProjectQuotas fails with ErrNotFound when there is nothing to delete.
//
// # Enforcement
//
//	enforcer := quotas.NewEnforcer(store, usage)
//	if err := enforcer.Enforce(ctx, project, quotas.ResourceOrders); quotas.IsQuotaReached(err) {
//		// reject the create request
//	}
//
// Enforcement is best-effort by default. Pass WithLocker and use Reserve to
// hold a per-project lock until the new resource is persisted:
//
//	release, err := enforcer.Reserve(ctx, project, quotas.ResourceOrders)
//	if err != nil {
//		return err
//	}
//	defer release()
//
// # Related Packages
//
//   - pkg/storage/postgres, pkg/storage/sqlite: Repository and UsageCounter
//   - pkg/locks: Redis Locker
//   - pkg/api: HTTP endpoints
package quotas
