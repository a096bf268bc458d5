package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/keyquota/pkg/api"
	"github.com/platinummonkey/keyquota/pkg/config"
	"github.com/platinummonkey/keyquota/pkg/httputil"
	"github.com/platinummonkey/keyquota/pkg/middleware"
	"github.com/platinummonkey/keyquota/pkg/observability"
	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// replicaCheckInterval is how often unhealthy read replicas are pruned
const replicaCheckInterval = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.Level(), nil)
	if err := run(context.Background(), cfg, logger); err != nil {
		logger.WithError(err).Error("keyquota stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	b, err := openBackend(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
	}
	logger.Infof("Storage backend %s ready", cfg.Storage.Type)

	locker, redisClient, err := newLocker(ctx, cfg, b, logger)
	if err != nil {
		b.Close()
		return fmt.Errorf("failed to create quota locker: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	opts := []quotas.Option{quotas.WithLogger(logger)}
	if cfg.Observability.MetricsEnabled {
		opts = append(opts, quotas.WithRecorder(metrics))
	}
	store := quotas.NewStore(b.repo, cfg.Quotas, opts...)
	if locker != nil {
		opts = append(opts, quotas.WithLocker(locker))
	}
	enforcer := quotas.NewEnforcer(store, b.usage, opts...)
	logger.WithFields(map[string]interface{}{
		"mode":   cfg.Enforcement.Mode,
		"strict": enforcer.Strict(),
	}).Info("Quota enforcement configured")

	apiServer := api.NewServer(store, enforcer, b.projects,
		api.WithLogger(logger),
		api.WithBaseURL(cfg.Server.BaseURL),
	)
	if cfg.Observability.MetricsEnabled {
		apiServer.Router().Use(observability.HTTPMetricsMiddleware(metrics))
	}

	handler := newHTTPHandler(apiServer, logger, cfg.Server.MaxBodyBytes)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(handler, "keyquota"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(b.db, redisClient, cfg.Observability.OTelServiceVersion))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	scheduler := cron.New()
	if cfg.Observability.MetricsEnabled && cfg.Observability.DBStatsInterval > 0 {
		spec := fmt.Sprintf("@every %s", cfg.Observability.DBStatsInterval)
		if _, err := scheduler.AddFunc(spec, func() { metrics.UpdateDBStats(b.db.Stats()) }); err != nil {
			b.Close()
			return fmt.Errorf("failed to schedule database stats: %w", err)
		}
	}
	scheduler.Start()

	if b.cm != nil && len(cfg.Storage.PostgresReplicaURLs) > 0 {
		b.cm.StartHealthCheckRoutine(ctx, replicaCheckInterval)
	}

	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, httpServer, healthServer)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		select {
		case <-scheduler.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	sm.RegisterShutdownFunc(func(context.Context) error {
		cancel()
		return b.Close()
	})
	if redisClient != nil {
		sm.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	if tp != nil {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tp, logger)
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting keyquota API on %s", httpServer.Addr)
		return serve(httpServer)
	})
	g.Go(func() error {
		logger.Infof("Starting health and metrics server on %s", healthServer.Addr)
		return serve(healthServer)
	})
	g.Go(func() error {
		return sm.WaitForShutdown(gctx)
	})

	return g.Wait()
}

// serve runs srv until it is shut down
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
	}
	return nil
}

// newHTTPHandler wraps the API router with the outer middleware. RequestID
// runs first so the access log line carries the request id.
func newHTTPHandler(apiServer http.Handler, logger *observability.Logger, maxBodyBytes int64) http.Handler {
	return httputil.Chain(
		middleware.RequestID(logger),
		middleware.AccessLog(logger),
		httputil.MaxBytesMiddleware(maxBodyBytes),
		httputil.ContentTypeMiddleware,
	)(apiServer)
}
