package warm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/talentiq/talentstats/pkg/async"
	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
	"github.com/talentiq/talentstats/pkg/observability"
)

// Warmer runs the nightly maintenance pass. Kinds run in parallel;
// within one kind, entities warm through a bounded worker pool so one
// slow or failing entity never stalls the batch.
type Warmer struct {
	engine  *growthstats.Engine
	sweeper *growthstats.Sweeper
	scorer  *growthstats.EngagementScorer
	dir     entities.Directory
	metrics *observability.Metrics
	log     logrus.FieldLogger
}

// NewWarmer creates a warmer over the stats components.
func NewWarmer(
	engine *growthstats.Engine,
	sweeper *growthstats.Sweeper,
	scorer *growthstats.EngagementScorer,
	dir entities.Directory,
	metrics *observability.Metrics,
	log logrus.FieldLogger,
) *Warmer {
	return &Warmer{
		engine:  engine,
		sweeper: sweeper,
		scorer:  scorer,
		dir:     dir,
		metrics: metrics,
		log:     log,
	}
}

// Run executes one full maintenance pass per the plan. Per-entity
// failures are logged and counted; Run only fails on errors that stop
// a whole kind, like an unreachable directory.
func (w *Warmer) Run(ctx context.Context, plan Plan) error {
	kinds, err := plan.ResolveKinds()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		kind := kind
		g.Go(func() error {
			return w.runKind(gctx, kind, plan)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if plan.Engagement {
		return w.RefreshEngagement(ctx, plan)
	}
	return nil
}

// runKind sweeps then warms every live entity of one kind. Sweeping
// first keeps the warm pass from repopulating buckets that are about
// to be deleted.
func (w *Warmer) runKind(ctx context.Context, kind entities.Kind, plan Plan) error {
	log := w.log.WithField("kind", kind.String())
	start := time.Now()

	if plan.Sweep {
		if err := w.sweeper.Sweep(ctx, kind); err != nil {
			return fmt.Errorf("sweep %s: %w", kind, err)
		}
		log.Info("sweep completed")
	}

	list, err := w.dir.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}

	tasks := make([]async.Task, len(list))
	for i, entity := range list {
		entity := entity
		tasks[i] = func(ctx context.Context) error {
			if err := w.engine.Warm(ctx, entity.Kind, entity.ID); err != nil {
				w.metrics.WarmedEntity(kind.String(), "error")
				log.WithError(err).WithField("entity_id", entity.ID).Warn("failed to warm entity")
				return err
			}
			w.metrics.WarmedEntity(kind.String(), "ok")
			return nil
		}
	}

	results := async.NewPool(plan.Concurrency).Run(ctx, tasks)
	failed := async.Errors(results)

	w.metrics.ObserveWarmBatch(kind.String(), time.Since(start))
	log.WithFields(logrus.Fields{
		"entities": len(list),
		"failed":   len(failed),
		"duration": time.Since(start).String(),
	}).Info("warm batch completed")

	return nil
}

// RefreshEngagement recomputes the engagement score for every live
// pipeline. Run calls it as its final stage; the warmer binary also
// schedules it independently.
func (w *Warmer) RefreshEngagement(ctx context.Context, plan Plan) error {
	pipelines, err := w.dir.List(ctx, entities.TalentPipeline)
	if err != nil {
		return fmt.Errorf("list pipelines for engagement refresh: %w", err)
	}

	tasks := make([]async.Task, len(pipelines))
	for i, pipeline := range pipelines {
		pipeline := pipeline
		tasks[i] = func(ctx context.Context) error {
			if err := w.scorer.Refresh(ctx, pipeline); err != nil {
				w.log.WithError(err).WithField("pipeline_id", pipeline.ID).Warn("failed to refresh engagement score")
				return err
			}
			return nil
		}
	}

	results := async.NewPool(plan.Concurrency).Run(ctx, tasks)
	w.log.WithFields(logrus.Fields{
		"pipelines": len(pipelines),
		"failed":    len(async.Errors(results)),
	}).Info("engagement refresh completed")

	return nil
}
