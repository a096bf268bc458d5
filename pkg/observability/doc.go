// Package observability provides structured logging, Prometheus metrics,
// health checks, OpenTelemetry tracing and graceful shutdown for keyquota.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("project_id", id).Info("project quotas set")
//
// Request-scoped loggers pick up the request and project IDs:
//
//	observability.LoggerFromContext(ctx, logger).Warn("quota reached")
//
// # Prometheus Metrics
//
// Metrics implements quotas.Recorder, so the store and enforcer report
// straight into the registry:
//
//	metrics := observability.NewMetrics(registry)
//	store := quotas.NewStore(repo, defaults, quotas.WithRecorder(metrics))
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	observability.RegisterHealthRoutes(opsMux, checker)
//
// # Tracing
//
//	tp, err := observability.InitTracing(ctx, cfg, logger)
//	defer observability.ShutdownTracing(ctx, tp, logger)
package observability
