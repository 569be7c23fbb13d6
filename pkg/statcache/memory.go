package statcache

import (
	"context"
	"path"
	"sync"
)

// MemoryCache implements Cache with an in-process map. It mirrors the
// semantics of RedisCache (including glob matching in Keys) so tests
// can run against either backend.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]map[string]string)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key, field string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields, ok := c.data[key]
	if !ok {
		return "", false, nil
	}
	val, ok := fields[field]
	return val, ok, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields, ok := c.data[key]
	if !ok {
		fields = make(map[string]string)
		c.data[key] = fields
	}
	fields[field] = value
	return nil
}

// SetIfAbsent implements Cache.
func (c *MemoryCache) SetIfAbsent(_ context.Context, key, field, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields, ok := c.data[key]
	if !ok {
		fields = make(map[string]string)
		c.data[key] = fields
	}
	if _, exists := fields[field]; exists {
		return false, nil
	}
	fields[field] = value
	return true, nil
}

// Has implements Cache.
func (c *MemoryCache) Has(_ context.Context, key, field string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields, ok := c.data[key]
	if !ok {
		return false, nil
	}
	_, ok = fields[field]
	return ok, nil
}

// Fields implements Cache.
func (c *MemoryCache) Fields(_ context.Context, key string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields := c.data[key]
	out := make([]string, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	return out, nil
}

// DeleteKey implements Cache.
func (c *MemoryCache) DeleteKey(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

// DeleteField implements Cache.
func (c *MemoryCache) DeleteField(_ context.Context, key string, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.data[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(existing, f)
	}
	if len(existing) == 0 {
		delete(c.data, key)
	}
	return nil
}

// Keys implements Cache. Patterns use path.Match globs, which covers
// the "*" suffix patterns the sweeper issues.
func (c *MemoryCache) Keys(_ context.Context, pattern string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var keys []string
	for key := range c.data {
		if ok, err := path.Match(pattern, key); err != nil {
			return nil, err
		} else if ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
