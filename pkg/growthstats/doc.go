// Package growthstats implements the time-bucketed candidate
// statistics cache: per-entity per-day 24-hour cumulative count
// buckets over a statcache.Cache, the computation engine that answers
// range/interval/timezone queries while populating buckets lazily,
// the retention and dangling-key sweeper, and the derived per-pipeline
// engagement score.
//
// Buckets for past days are populated once (two count-service calls)
// and are immutable afterwards; "today" and future dates are always
// computed live and never cached, since they are still accumulating.
// Concurrent populates of the same bucket are benign: the computation
// is idempotent and bucket-key registration is first-writer-wins.
package growthstats
