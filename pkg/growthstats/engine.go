package growthstats

import (
	"context"
	"errors"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/talentiq/talentstats/pkg/entities"
)

var engineTracer = otel.Tracer("talentstats/growthstats/engine")

// RetentionDays is the horizon beyond which statistics are neither
// cached nor queryable.
const RetentionDays = 90

// isoDateLayout parses the client-supplied from_date/to_date values.
const isoDateLayout = "2006-01-02"

// Query describes one growth statistics request. FromDate and ToDate
// are ISO dates in client-local time; empty strings select the
// default range [now-90d, now].
type Query struct {
	Offset   float64
	FromDate string
	ToDate   string
	Interval int
	IsUpdate bool
}

// Sample is one point of the response: the cumulative count at the
// sampled instant and the day-over-day delta to the previous sample.
type Sample struct {
	TotalCount              int64     `json:"total_count"`
	AddedDateTime           time.Time `json:"added_datetime"`
	NumberOfCandidatesAdded int64     `json:"number_of_candidates_added"`
}

// SourceFactory builds a CountSource for an entity. Injected so the
// engine never talks to the count service directly.
type SourceFactory func(entities.Entity) CountSource

// Engine answers range/interval/timezone growth queries, populating
// hour buckets lazily through the BucketIndex.
type Engine struct {
	index     *BucketIndex
	dir       entities.Directory
	newSource SourceFactory
	now       func() time.Time
}

// NewEngine creates an engine over the given bucket index, entity
// directory, and count source factory.
func NewEngine(index *BucketIndex, dir entities.Directory, newSource SourceFactory) *Engine {
	return &Engine{
		index:     index,
		dir:       dir,
		newSource: newSource,
		now:       time.Now,
	}
}

// WithClock overrides the time source for the engine and its bucket
// index. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.index.WithClock(now)
	return e
}

// GrowthStats computes samples for the entity every Interval days
// between FromDate and ToDate, most recent first.
func (e *Engine) GrowthStats(ctx context.Context, kind entities.Kind, id int64, q Query) ([]Sample, error) {
	ctx, span := engineTracer.Start(ctx, "GrowthStats")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity.kind", kind.String()),
		attribute.Int64("entity.id", id),
		attribute.Bool("query.is_update", q.IsUpdate),
	)

	offset, err := validateOffset(q.Offset)
	if err != nil {
		return nil, err
	}
	if q.Interval < 1 {
		return nil, NewInvalidUsage("interval must be a positive integer, got %d", q.Interval)
	}

	entity, err := e.dir.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, &NotFoundError{Resource: kind.String(), Err: err}
		}
		return nil, err
	}

	localNow := OffsetDateTime(e.now().UTC(), offset)

	fromLocal, toLocal, err := e.resolveRange(q, offset, localNow, entity.AddedTime)
	if err != nil {
		return nil, err
	}

	src := e.newSource(*entity)
	return e.walk(ctx, src, fromLocal, toLocal, q.Interval, offset, q.IsUpdate)
}

// Warm runs the engine in update mode over the default range for one
// entity: it pre-populates yesterday's bucket (today is excluded) and
// touches the rest of the retention window, which is already cached
// on every night but the first.
func (e *Engine) Warm(ctx context.Context, kind entities.Kind, id int64) error {
	_, err := e.GrowthStats(ctx, kind, id, Query{Interval: 1, IsUpdate: true})
	return err
}

// validateOffset rounds the raw offset and bounds it to [-12, 12].
func validateOffset(raw float64) (int, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, NewInvalidUsage("offset must be a number of hours")
	}
	offset := int(math.Round(raw))
	if offset > MaxOffsetHours || offset < -MaxOffsetHours {
		return 0, NewInvalidUsage("offset must be within [-%d, %d] hours, got %d",
			MaxOffsetHours, MaxOffsetHours, offset)
	}
	return offset, nil
}

// resolveRange applies defaults, clamps the start to the entity's
// creation day, and validates the bounds.
func (e *Engine) resolveRange(q Query, offset int, localNow time.Time, addedTime time.Time) (time.Time, time.Time, error) {
	var zero time.Time

	toLocal := localNow
	if q.ToDate != "" {
		parsed, err := time.Parse(isoDateLayout, q.ToDate)
		if err != nil {
			return zero, zero, NewInvalidUsage("to_date %q is not a valid ISO date", q.ToDate)
		}
		toLocal = parsed
	}

	fromLocal := localNow.AddDate(0, 0, -RetentionDays)
	if q.FromDate != "" {
		parsed, err := time.Parse(isoDateLayout, q.FromDate)
		if err != nil {
			return zero, zero, NewInvalidUsage("from_date %q is not a valid ISO date", q.FromDate)
		}
		fromLocal = parsed
	}

	// An entity created after the requested start has no earlier
	// statistics; pull the start up to its creation day.
	addedLocal := OffsetDateTime(addedTime, offset)
	if dayStart(fromLocal).Before(dayStart(addedLocal)) {
		fromLocal = addedLocal
	}

	// Checked after clamping: an old from_date on a young entity is
	// pulled up to its creation day and may land back inside the window.
	horizon := localNow.AddDate(0, 0, -RetentionDays)
	if dayStart(fromLocal).Before(dayStart(horizon)) {
		return zero, zero, NewInvalidUsage("requested range is older than the %d-day retention horizon", RetentionDays)
	}
	if dayStart(fromLocal).After(dayStart(toLocal)) {
		return zero, zero, NewInvalidUsage("from_date is after to_date")
	}
	if dayStart(toLocal).After(dayStart(localNow)) {
		return zero, zero, NewInvalidUsage("to_date is in the future")
	}

	return fromLocal, toLocal, nil
}

// walk samples day totals from toLocal back to fromLocal, then
// derives day-over-day deltas against a reference total taken one day
// before the earliest sample.
func (e *Engine) walk(ctx context.Context, src CountSource, fromLocal, toLocal time.Time, interval, offset int, isUpdate bool) ([]Sample, error) {
	cursor := dayEnd(toLocal)
	if isUpdate {
		// Update mode excludes the still-open "today" bucket.
		cursor = cursor.AddDate(0, 0, -interval)
	}

	var samples []Sample
	for sameOrAfterDay(cursor, fromLocal) {
		total, err := e.index.DayTotal(ctx, src, cursor, offset)
		if err != nil {
			return nil, err
		}
		samples = append(samples, Sample{
			TotalCount:    total,
			AddedDateTime: cursor,
		})
		cursor = cursor.AddDate(0, 0, -interval)
	}

	if len(samples) == 0 {
		return samples, nil
	}

	// Baseline for the oldest sample's delta: the total on the day
	// before the earliest sample.
	earliest := samples[len(samples)-1].AddedDateTime
	reference, err := e.index.DayTotal(ctx, src, earliest.AddDate(0, 0, -1), offset)
	if err != nil {
		return nil, err
	}

	for i := range samples {
		previous := reference
		if i+1 < len(samples) {
			previous = samples[i+1].TotalCount
		}
		samples[i].NumberOfCandidatesAdded = samples[i].TotalCount - previous
	}

	return samples, nil
}
