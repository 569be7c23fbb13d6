package statcache

import (
	"context"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupRedisCacheTest creates a miniredis-backed cache and a cleanup
// function.
func setupRedisCacheTest(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client)

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return cache, mr, cleanup
}

// backends returns each Cache implementation under a name, so the
// semantics tests run against both.
func backends(t *testing.T) map[string]struct {
	cache   Cache
	cleanup func()
} {
	t.Helper()

	redisCache, _, redisCleanup := setupRedisCacheTest(t)
	return map[string]struct {
		cache   Cache
		cleanup func()
	}{
		"redis":  {cache: redisCache, cleanup: redisCleanup},
		"memory": {cache: NewMemoryCache(), cleanup: func() {}},
	}
}

func TestCache_GetSet(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.cleanup()
			ctx := context.Background()
			c := backend.cache

			_, ok, err := c.Get(ctx, "key", "field")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if ok {
				t.Fatal("Expected miss on empty cache")
			}

			if err := c.Set(ctx, "key", "field", "value"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			val, ok, err := c.Get(ctx, "key", "field")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !ok || val != "value" {
				t.Fatalf("Expected (value, true), got (%q, %v)", val, ok)
			}
		})
	}
}

func TestCache_SetIfAbsent(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.cleanup()
			ctx := context.Background()
			c := backend.cache

			won, err := c.SetIfAbsent(ctx, "key", "field", "first")
			if err != nil {
				t.Fatalf("SetIfAbsent failed: %v", err)
			}
			if !won {
				t.Fatal("Expected first writer to win")
			}

			won, err = c.SetIfAbsent(ctx, "key", "field", "second")
			if err != nil {
				t.Fatalf("SetIfAbsent failed: %v", err)
			}
			if won {
				t.Fatal("Expected second writer to lose")
			}

			val, _, err := c.Get(ctx, "key", "field")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if val != "first" {
				t.Fatalf("Expected first writer's value to survive, got %q", val)
			}
		})
	}
}

func TestCache_HasAndFields(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.cleanup()
			ctx := context.Background()
			c := backend.cache

			if err := c.Set(ctx, "key", "a", "1"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := c.Set(ctx, "key", "b", "2"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			ok, err := c.Has(ctx, "key", "a")
			if err != nil {
				t.Fatalf("Has failed: %v", err)
			}
			if !ok {
				t.Fatal("Expected field a to exist")
			}

			ok, err = c.Has(ctx, "key", "c")
			if err != nil {
				t.Fatalf("Has failed: %v", err)
			}
			if ok {
				t.Fatal("Expected field c to not exist")
			}

			fields, err := c.Fields(ctx, "key")
			if err != nil {
				t.Fatalf("Fields failed: %v", err)
			}
			sort.Strings(fields)
			if len(fields) != 2 || fields[0] != "a" || fields[1] != "b" {
				t.Fatalf("Expected fields [a b], got %v", fields)
			}
		})
	}
}

func TestCache_Delete(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.cleanup()
			ctx := context.Background()
			c := backend.cache

			for _, key := range []string{"k1", "k2"} {
				if err := c.Set(ctx, key, "f", "v"); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
			}

			if err := c.DeleteKey(ctx, "k1", "k2"); err != nil {
				t.Fatalf("DeleteKey failed: %v", err)
			}
			for _, key := range []string{"k1", "k2"} {
				if _, ok, _ := c.Get(ctx, key, "f"); ok {
					t.Fatalf("Expected key %s to be deleted", key)
				}
			}

			if err := c.Set(ctx, "k3", "f1", "v"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := c.Set(ctx, "k3", "f2", "v"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := c.DeleteField(ctx, "k3", "f1"); err != nil {
				t.Fatalf("DeleteField failed: %v", err)
			}
			if _, ok, _ := c.Get(ctx, "k3", "f1"); ok {
				t.Fatal("Expected field f1 to be deleted")
			}
			if _, ok, _ := c.Get(ctx, "k3", "f2"); !ok {
				t.Fatal("Expected field f2 to survive")
			}
		})
	}
}

func TestCache_KeysPattern(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.cleanup()
			ctx := context.Background()
			c := backend.cache

			seed := []string{
				"talent_pools_growth_stat_v2_1",
				"talent_pools_growth_stat_v2_2",
				"talent_pipelines_growth_stat_v2_1",
			}
			for _, key := range seed {
				if err := c.Set(ctx, key, "f", "v"); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
			}

			keys, err := c.Keys(ctx, "talent_pools_growth_stat_v2_*")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			sort.Strings(keys)
			if len(keys) != 2 {
				t.Fatalf("Expected 2 keys, got %v", keys)
			}
			if keys[0] != "talent_pools_growth_stat_v2_1" || keys[1] != "talent_pools_growth_stat_v2_2" {
				t.Fatalf("Unexpected keys: %v", keys)
			}
		})
	}
}

func TestRedisCache_DeleteFieldEmptiesKey(t *testing.T) {
	cache, mr, cleanup := setupRedisCacheTest(t)
	defer cleanup()
	ctx := context.Background()

	if err := cache.Set(ctx, "key", "only", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.DeleteField(ctx, "key", "only"); err != nil {
		t.Fatalf("DeleteField failed: %v", err)
	}

	// Redis removes a hash once its last field is gone.
	if mr.Exists("key") {
		t.Fatal("Expected key to be gone after last field deletion")
	}
}

func TestRedisCache_Ping(t *testing.T) {
	cache, mr, cleanup := setupRedisCacheTest(t)
	defer cleanup()

	if err := cache.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	mr.Close()
	if err := cache.Ping(context.Background()); err == nil {
		t.Fatal("Expected ping to fail after server close")
	}
}
