package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/talentiq/talentstats/pkg/api"
	"github.com/talentiq/talentstats/pkg/config"
	"github.com/talentiq/talentstats/pkg/counting"
	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
	"github.com/talentiq/talentstats/pkg/observability"
	"github.com/talentiq/talentstats/pkg/statcache"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting TalentStats API server")

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, cfg.Observability.OTel, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	cache, err := statcache.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to redis")
		os.Exit(1)
	}
	defer cache.Close()
	logger.Info("Connected to redis")

	dir, err := entities.NewPostgresDirectory(cfg.Postgres.URL, cfg.Postgres.MaxConns)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to postgres")
		os.Exit(1)
	}
	defer dir.Close()
	logger.Info("Connected to postgres")

	countClient := counting.NewClient(cfg.CountService, metrics)

	index, err := growthstats.NewBucketIndex(cache, cfg.BucketLRUSize, metrics)
	if err != nil {
		logger.WithError(err).Error("Failed to create bucket index")
		os.Exit(1)
	}

	newSource := func(e entities.Entity) growthstats.CountSource {
		return counting.NewSource(countClient, e)
	}
	engine := growthstats.NewEngine(index, dir, newSource)
	scorer := growthstats.NewEngagementScorer(cache, newSource)

	server := api.NewServer(
		api.ServerConfig{Host: cfg.Server.Host, Port: cfg.Server.Port},
		engine, scorer, dir, nil, logger, metrics,
	)

	healthServer := newHealthServer(cfg, cache, metrics)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()
	logger.Infof("Health server listening on :%s", cfg.Server.HealthPort)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()

	sm := observability.NewShutdownManager(logger, nil, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(server.Stop)
	sm.RegisterShutdownFunc(healthServer.Shutdown)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownTracing(ctx, tp, logger)
	})
	sm.RegisterShutdownFunc(func(context.Context) error { return cache.Close() })
	sm.RegisterShutdownFunc(func(context.Context) error { return dir.Close() })

	if err := sm.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}

// newHealthServer serves the k8s probes and the metrics scrape on a
// port separate from the API.
func newHealthServer(cfg *config.Config, cache *statcache.RedisCache, metrics *observability.Metrics) *http.Server {
	checker := observability.NewHealthChecker(map[string]observability.Pinger{
		"redis": observability.PingerFunc(cache.Ping),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	return &http.Server{
		Addr:    ":" + cfg.Server.HealthPort,
		Handler: mux,
	}
}
