package statcache

import "context"

// Cache is a namespaced key -> field -> value persistent mapping with
// lazy field creation.
//
// Atomicity is guaranteed only per key+field. SetIfAbsent is the one
// cross-checking primitive: it registers a field only when no value
// exists yet, which callers use to make racing registrations
// first-writer-wins.
type Cache interface {
	// Get returns the value and whether the field exists.
	Get(ctx context.Context, key, field string) (string, bool, error)

	// Set writes the value, creating key and field as needed.
	Set(ctx context.Context, key, field, value string) error

	// SetIfAbsent writes the value only when the field does not exist
	// yet. Returns true when this call performed the write.
	SetIfAbsent(ctx context.Context, key, field, value string) (bool, error)

	// Has reports whether the field exists under the key.
	Has(ctx context.Context, key, field string) (bool, error)

	// Fields returns every field currently present under the key.
	// A missing key yields an empty slice, not an error.
	Fields(ctx context.Context, key string) ([]string, error)

	// DeleteKey removes the given keys and all their fields.
	DeleteKey(ctx context.Context, keys ...string) error

	// DeleteField removes individual fields under a key.
	DeleteField(ctx context.Context, key string, fields ...string) error

	// Keys enumerates keys matching a glob pattern (for example
	// "talent_pools_growth_stat_v2_*").
	Keys(ctx context.Context, pattern string) ([]string, error)
}
