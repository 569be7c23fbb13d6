package growthstats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/statcache"
)

const (
	// EngagementScoreKey is the flat cache key holding every
	// pipeline's engagement score.
	EngagementScoreKey = "pipelines_engagement_score"

	// engagementWindowDays is the recent-activity window the score is
	// computed over.
	engagementWindowDays = 30
)

// EngagementScoreField is the cache field for one pipeline's score.
func EngagementScoreField(id int64) string {
	return fmt.Sprintf("pipelines_engagement_score_%d", id)
}

// EngagementScorer maintains the derived per-pipeline engagement
// score: the share of the pipeline's candidates added in the last 30
// days. Unlike growth statistics it has no bucketing; one float per
// pipeline, refreshed nightly.
type EngagementScorer struct {
	cache     statcache.Cache
	newSource SourceFactory
	now       func() time.Time
}

// NewEngagementScorer creates a scorer over the given cache.
func NewEngagementScorer(cache statcache.Cache, newSource SourceFactory) *EngagementScorer {
	return &EngagementScorer{
		cache:     cache,
		newSource: newSource,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *EngagementScorer) WithClock(now func() time.Time) *EngagementScorer {
	s.now = now
	return s
}

// Refresh recomputes and stores the score for one pipeline. A
// pipeline with no candidates has no meaningful score; its field is
// removed so readers see "unscored" rather than zero.
func (s *EngagementScorer) Refresh(ctx context.Context, pipeline entities.Entity) error {
	src := s.newSource(pipeline)
	now := s.now().UTC()

	total, err := src.CountUntil(ctx, now)
	if err != nil {
		return err
	}

	field := EngagementScoreField(pipeline.ID)
	if total == 0 {
		return s.cache.DeleteField(ctx, EngagementScoreKey, field)
	}

	prior, err := src.CountUntil(ctx, now.AddDate(0, 0, -engagementWindowDays))
	if err != nil {
		return err
	}

	score := float64(total-prior) / float64(total)
	return s.cache.Set(ctx, EngagementScoreKey, field,
		strconv.FormatFloat(score, 'f', 6, 64))
}

// Score reads a pipeline's cached score. The second return is false
// when the pipeline is unscored.
func (s *EngagementScorer) Score(ctx context.Context, id int64) (float64, bool, error) {
	val, ok, err := s.cache.Get(ctx, EngagementScoreKey, EngagementScoreField(id))
	if err != nil || !ok {
		return 0, false, err
	}
	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cached engagement score %q: %w", val, err)
	}
	return score, true, nil
}
