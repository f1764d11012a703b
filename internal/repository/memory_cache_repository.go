package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"

	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

// MemoryCacheRepository is the in-process counterpart of CacheRepository. Values are kept as JSON so
// callers observe the same copy semantics as with Redis.
type MemoryCacheRepository struct {
	cache *gocache.Cache
}

// NewMemoryCacheRepository constructs an in-memory cache with the given default expiry and janitor interval.
func NewMemoryCacheRepository(defaultExpiration, cleanupInterval time.Duration) *MemoryCacheRepository {
	return &MemoryCacheRepository{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

// Get unmarshals the cached value into dest.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	value, found := r.cache.Get(key)
	if !found {
		return appErrors.ErrCacheMiss
	}
	raw, ok := value.([]byte)
	if !ok {
		r.cache.Delete(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.cache.Delete(key)
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set stores value with the given TTL. A zero TTL uses the cache default.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	r.cache.Set(key, payload, ttl)
	return nil
}

// DeleteByPattern removes every key matching the glob pattern.
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid cache pattern %s: %w", pattern, err)
	}
	for key := range r.cache.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			r.cache.Delete(key)
		}
	}
	return nil
}

// Ping always succeeds.
func (r *MemoryCacheRepository) Ping(context.Context) error { return nil }

// Len reports the number of unexpired entries.
func (r *MemoryCacheRepository) Len() int {
	return r.cache.ItemCount()
}
