// Package statcache provides the persistent two-level mapping
// (key -> field -> value) that backs the growth statistics cache.
//
// The interface is deliberately small: every operation is atomic at
// the single key+field granularity and no multi-field transaction is
// offered. Callers that write many fields under one key (for example
// a 24-slot hour bucket) must tolerate partial completion and detect
// it by counting fields.
//
// Two implementations are provided: RedisCache, which maps each key
// to a Redis hash, and MemoryCache, a mutex-guarded map for tests.
package statcache
