package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/talentiq/talentstats/pkg/config"
	"github.com/talentiq/talentstats/pkg/counting"
	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
	"github.com/talentiq/talentstats/pkg/observability"
	"github.com/talentiq/talentstats/pkg/statcache"
	"github.com/talentiq/talentstats/pkg/warm"
)

var (
	nightlySchedule    = flag.String("nightly-schedule", "30 0 * * *", "Cron schedule for the nightly warm and sweep (default: 00:30 UTC)")
	engagementSchedule = flag.String("engagement-schedule", "0 1 * * *", "Cron schedule for the pipeline engagement score refresh (default: 01:00 UTC)")
	planFile           = flag.String("plan", "", "Optional YAML plan file selecting kinds, concurrency, and stages")
	runOnce            = flag.Bool("run-once", false, "Run one maintenance pass and exit (for testing or backfilling)")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	plan := warm.DefaultPlan()
	if *planFile != "" {
		plan, err = warm.LoadPlan(*planFile)
		if err != nil {
			log.WithError(err).Fatal("Failed to load plan file")
		}
	}

	cache, err := statcache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to redis")
	}
	defer cache.Close()

	dir, err := entities.NewPostgresDirectory(cfg.Postgres.URL, cfg.Postgres.MaxConns)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to postgres")
	}
	defer dir.Close()

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	countClient := counting.NewClient(cfg.CountService, metrics)
	newSource := func(e entities.Entity) growthstats.CountSource {
		return counting.NewSource(countClient, e)
	}

	index, err := growthstats.NewBucketIndex(cache, cfg.BucketLRUSize, metrics)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bucket index")
	}

	engine := growthstats.NewEngine(index, dir, newSource)
	sweeper := growthstats.NewSweeper(cache, dir, metrics, logger)
	scorer := growthstats.NewEngagementScorer(cache, newSource)
	warmer := warm.NewWarmer(engine, sweeper, scorer, dir, metrics, log)

	if *runOnce {
		log.Info("Running one maintenance pass")
		if err := warmer.Run(context.Background(), plan); err != nil {
			log.WithError(err).Fatal("Maintenance pass failed")
		}
		log.Info("Maintenance pass completed")
		return
	}

	c := cron.New()

	// The scheduled nightly pass skips engagement; it runs on its own
	// schedule below so a slow warm never delays the scores.
	nightlyPlan := plan
	nightlyPlan.Engagement = false
	_, err = c.AddFunc(*nightlySchedule, func() {
		log.Info("Starting nightly maintenance pass")
		if err := warmer.Run(context.Background(), nightlyPlan); err != nil {
			log.WithError(err).Error("Nightly maintenance pass failed")
			return
		}
		log.Info("Nightly maintenance pass completed")
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to schedule nightly maintenance")
	}

	if plan.Engagement {
		_, err = c.AddFunc(*engagementSchedule, func() {
			log.Info("Starting engagement score refresh")
			if err := warmer.RefreshEngagement(context.Background(), plan); err != nil {
				log.WithError(err).Error("Engagement score refresh failed")
				return
			}
			log.Info("Engagement score refresh completed")
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to schedule engagement refresh")
		}
	}

	c.Start()
	log.WithFields(logrus.Fields{
		"nightly_schedule":    *nightlySchedule,
		"engagement_schedule": *engagementSchedule,
	}).Info("TalentStats warmer started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully")
	<-c.Stop().Done()
	log.Info("Warmer stopped")
}
