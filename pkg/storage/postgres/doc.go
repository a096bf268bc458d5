// Package postgres implements quota storage on PostgreSQL.
//
// ProjectQuotasRepository implements quotas.Repository over the
// project_quotas table, UsageCounter counts live rows in the resource
// tables, ProjectRepository maps external project ids to internal ones and
// AdvisoryLocker provides strict enforcement with pg_try_advisory_lock on a
// dedicated lock pool.
//
//	cm, err := postgres.NewConnectionManager(ctx, postgres.ConnectionConfigFromStorage(cfg), logger)
//	repo := postgres.NewProjectQuotasRepositoryWithReplicas(cm)
//	usage := postgres.NewUsageCounter(cm.Primary())
package postgres
