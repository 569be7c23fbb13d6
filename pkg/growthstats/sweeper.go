package growthstats

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/observability"
	"github.com/talentiq/talentstats/pkg/statcache"
)

// Sweeper prunes the statistics cache: buckets older than the
// retention horizon, and whole index keys whose owning entity no
// longer exists. Every deletion is idempotent and safe to run while
// the engine populates concurrently; a bucket recreated right after
// deletion just costs one extra populate pass.
type Sweeper struct {
	cache   statcache.Cache
	dir     entities.Directory
	metrics *observability.Metrics
	logger  *observability.Logger
	now     func() time.Time
}

// NewSweeper creates a sweeper over the given cache and directory.
func NewSweeper(cache statcache.Cache, dir entities.Directory, metrics *observability.Metrics, logger *observability.Logger) *Sweeper {
	return &Sweeper{
		cache:   cache,
		dir:     dir,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep processes every index key of the given kind. Failures on one
// key are logged and counted but never abort the rest of the sweep.
func (s *Sweeper) Sweep(ctx context.Context, kind entities.Kind) error {
	pattern := kind.String() + "_growth_stat_v2_*"
	keys, err := s.cache.Keys(ctx, pattern)
	if err != nil {
		return err
	}

	horizon := dayStart(s.now().UTC().AddDate(0, 0, -RetentionDays))
	log := s.logger.WithField("kind", kind.String())

	for _, key := range keys {
		if err := s.sweepKey(ctx, kind, key, horizon); err != nil {
			s.metrics.SweepError(kind.String())
			log.WithError(err).WithField("key", key).Warn("Failed to sweep index key")
		}
	}
	return nil
}

// sweepKey handles one index key: drop it entirely when the entity is
// gone, otherwise drop only the date fields past the horizon.
func (s *Sweeper) sweepKey(ctx context.Context, kind entities.Kind, key string, horizon time.Time) error {
	id, ok := entityIDFromKey(kind, key)
	if !ok {
		// Not one of ours; SCAN patterns can over-match if someone
		// shares the prefix.
		return nil
	}

	alive, err := s.dir.Exists(ctx, kind, id)
	if err != nil {
		return err
	}

	if !alive {
		if err := s.deleteWholeKey(ctx, kind, key); err != nil {
			return err
		}
		s.metrics.DanglingKey(kind.String())
		return nil
	}

	fields, err := s.cache.Fields(ctx, key)
	if err != nil {
		return err
	}

	for _, field := range fields {
		date, err := time.Parse(dateKeyLayout, field)
		if err != nil {
			// Unparseable fields are junk; drop them with their bucket.
			s.logger.WithField("key", key).WithField("field", field).Warn("Dropping malformed date field")
			if err := s.deleteBucketField(ctx, key, field); err != nil {
				return err
			}
			continue
		}
		if !date.Before(horizon) {
			continue
		}
		if err := s.deleteBucketField(ctx, key, field); err != nil {
			return err
		}
		s.metrics.SweptBucket(kind.String(), "retention")
	}
	return nil
}

// deleteWholeKey removes an index key and every bucket it references.
func (s *Sweeper) deleteWholeKey(ctx context.Context, kind entities.Kind, key string) error {
	fields, err := s.cache.Fields(ctx, key)
	if err != nil {
		return err
	}
	for _, field := range fields {
		bucketKey, ok, err := s.cache.Get(ctx, key, field)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := s.cache.DeleteKey(ctx, bucketKey); err != nil {
			return err
		}
		s.metrics.SweptBucket(kind.String(), "dangling")
	}
	return s.cache.DeleteKey(ctx, key)
}

// deleteBucketField removes one date's bucket and its index field.
func (s *Sweeper) deleteBucketField(ctx context.Context, key, field string) error {
	bucketKey, ok, err := s.cache.Get(ctx, key, field)
	if err != nil {
		return err
	}
	if ok {
		if err := s.cache.DeleteKey(ctx, bucketKey); err != nil {
			return err
		}
	}
	return s.cache.DeleteField(ctx, key, field)
}

// entityIDFromKey extracts the trailing entity id from an index key.
func entityIDFromKey(kind entities.Kind, key string) (int64, bool) {
	prefix := kind.String() + "_growth_stat_v2_"
	rest := strings.TrimPrefix(key, prefix)
	if rest == key || rest == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
