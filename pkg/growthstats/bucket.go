package growthstats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/observability"
	"github.com/talentiq/talentstats/pkg/statcache"
)

// hoursPerBucket is the slot count of a complete hour bucket.
const hoursPerBucket = 24

// CountSource is the per-entity counting capability the bucket layer
// and engine operate on. One implementation per container kind is
// unnecessary: the counting package builds a source from any entity.
type CountSource interface {
	// Entity returns the container this source counts for.
	Entity() entities.Entity

	// CountUntil returns the number of matching candidates from epoch
	// through the given instant.
	CountUntil(ctx context.Context, until time.Time) (int64, error)

	// CountByHour returns the per-hour breakdown of candidates added
	// between from and to, which span one calendar day.
	CountByHour(ctx context.Context, from, to time.Time) ([hoursPerBucket]int64, error)
}

// IndexKey is the top-level cache key holding the date -> bucket-key
// mapping for one entity.
func IndexKey(kind entities.Kind, id int64) string {
	return fmt.Sprintf("%s_growth_stat_v2_%d", kind, id)
}

// BucketIndex resolves (entity, local calendar date) to a day total,
// creating and populating hour buckets as needed.
type BucketIndex struct {
	cache   statcache.Cache
	local   *lru.Cache[string, [hoursPerBucket]int64]
	metrics *observability.Metrics
	now     func() time.Time
}

// NewBucketIndex creates a bucket index over the given cache.
// lruSize bounds the in-process memo of completed buckets; completed
// buckets are immutable, so memoizing them is safe across workers.
func NewBucketIndex(cache statcache.Cache, lruSize int, metrics *observability.Metrics) (*BucketIndex, error) {
	if lruSize <= 0 {
		lruSize = 4096
	}
	local, err := lru.New[string, [hoursPerBucket]int64](lruSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket LRU: %w", err)
	}
	return &BucketIndex{
		cache:   cache,
		local:   local,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// WithClock overrides the time source. Used by tests.
func (b *BucketIndex) WithClock(now func() time.Time) *BucketIndex {
	b.now = now
	return b
}

// bucketKey returns the bucket key registered for the entity's local
// calendar date, allocating one if needed. Registration is atomic
// first-writer-wins: a racer that loses the SetIfAbsent discards its
// candidate key and adopts the winner's, so no bucket key leaks.
func (b *BucketIndex) bucketKey(ctx context.Context, e entities.Entity, localDate time.Time) (string, error) {
	indexKey := IndexKey(e.Kind, e.ID)
	field := DateKey(localDate)

	key, ok, err := b.cache.Get(ctx, indexKey, field)
	if err != nil {
		return "", err
	}
	if ok {
		return key, nil
	}

	candidate := uuid.NewString()
	won, err := b.cache.SetIfAbsent(ctx, indexKey, field, candidate)
	if err != nil {
		return "", err
	}
	if won {
		return candidate, nil
	}

	key, ok, err = b.cache.Get(ctx, indexKey, field)
	if err != nil {
		return "", err
	}
	if !ok {
		// Lost the race but the winner's entry is gone already; the
		// sweeper can delete between our SetIfAbsent and Get. Retry
		// falls to the caller's next populate pass.
		return "", fmt.Errorf("bucket key for %s %s vanished during registration", indexKey, field)
	}
	return key, nil
}

// DayTotal returns the cumulative candidate count for the entity at
// the given client-local instant, normally anchored at 23:59:59 for a
// whole-day total. offsetHours is the client timezone offset used to
// shift count-service bounds to UTC.
func (b *BucketIndex) DayTotal(ctx context.Context, src CountSource, localDate time.Time, offsetHours int) (int64, error) {
	e := src.Entity()
	kind := e.Kind.String()

	// Days before the entity existed have no statistics; answer zero
	// without touching the cache or the count service.
	if OffsetDateTime(dayEnd(localDate), -offsetHours).Before(e.AddedTime) {
		return 0, nil
	}

	// Today and future days are still accumulating: always compute
	// live, never cache.
	localNow := OffsetDateTime(b.now().UTC(), offsetHours)
	if sameOrAfterDay(localDate, localNow) {
		return src.CountUntil(ctx, OffsetDateTime(dayEnd(localDate), -offsetHours))
	}

	bucket, err := b.loadOrPopulate(ctx, src, localDate, offsetHours)
	if err != nil {
		b.metrics.BucketPopulate(kind, "error")
		return 0, err
	}

	hour := localDate.Hour()
	return bucket[hour], nil
}

// loadOrPopulate returns the complete 24-slot bucket for the local
// date, populating it when missing or partially written.
func (b *BucketIndex) loadOrPopulate(ctx context.Context, src CountSource, localDate time.Time, offsetHours int) ([hoursPerBucket]int64, error) {
	e := src.Entity()
	kind := e.Kind.String()

	key, err := b.bucketKey(ctx, e, localDate)
	if err != nil {
		return [hoursPerBucket]int64{}, err
	}

	if bucket, ok := b.local.Get(key); ok {
		b.metrics.BucketHit(kind)
		return bucket, nil
	}

	fields, err := b.cache.Fields(ctx, key)
	if err != nil {
		return [hoursPerBucket]int64{}, err
	}

	if len(fields) == hoursPerBucket {
		bucket, ok, err := b.readBucket(ctx, key)
		if err != nil {
			return [hoursPerBucket]int64{}, err
		}
		if ok {
			b.metrics.BucketHit(kind)
			b.local.Add(key, bucket)
			return bucket, nil
		}
		// Fields vanished mid-read (sweeper interleaving); fall
		// through and repopulate.
	}

	// Missing or partially written bucket: redo the whole populate.
	// Two concurrent populates compute identical values, so the last
	// writer winning per field is harmless.
	b.metrics.BucketMiss(kind)
	bucket, err := b.populate(ctx, src, key, localDate, offsetHours)
	if err != nil {
		return [hoursPerBucket]int64{}, err
	}
	b.metrics.BucketPopulate(kind, "ok")
	b.local.Add(key, bucket)
	return bucket, nil
}

// populate fills all 24 hour slots in one pass: one count through the
// end of the previous day, plus one hour-faceted count over the day
// itself, accumulated so slot h holds the total through hour h.
func (b *BucketIndex) populate(ctx context.Context, src CountSource, key string, localDate time.Time, offsetHours int) ([hoursPerBucket]int64, error) {
	priorEnd := OffsetDateTime(dayEnd(localDate.AddDate(0, 0, -1)), -offsetHours)
	prior, err := src.CountUntil(ctx, priorEnd)
	if err != nil {
		return [hoursPerBucket]int64{}, err
	}

	from := OffsetDateTime(dayStart(localDate), -offsetHours)
	to := OffsetDateTime(dayEnd(localDate), -offsetHours)
	facets, err := src.CountByHour(ctx, from, to)
	if err != nil {
		return [hoursPerBucket]int64{}, err
	}

	var bucket [hoursPerBucket]int64
	running := prior
	for h := 0; h < hoursPerBucket; h++ {
		running += facets[h]
		bucket[h] = running
		if err := b.cache.Set(ctx, key, strconv.Itoa(h), strconv.FormatInt(running, 10)); err != nil {
			return [hoursPerBucket]int64{}, err
		}
	}
	return bucket, nil
}

// readBucket loads a complete bucket from the cache. The second
// return is false when a field disappeared between the completeness
// check and this read, which the caller treats as incomplete.
func (b *BucketIndex) readBucket(ctx context.Context, key string) ([hoursPerBucket]int64, bool, error) {
	var bucket [hoursPerBucket]int64
	for h := 0; h < hoursPerBucket; h++ {
		val, ok, err := b.cache.Get(ctx, key, strconv.Itoa(h))
		if err != nil {
			return bucket, false, err
		}
		if !ok {
			return bucket, false, nil
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return bucket, false, fmt.Errorf("bucket %s hour %d holds invalid count %q: %w", key, h, val, err)
		}
		bucket[h] = n
	}
	return bucket, true, nil
}
