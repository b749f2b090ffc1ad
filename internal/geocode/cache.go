package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores resolved postcodes keyed by coordinate. Listings in the same
// building share coordinates, so even the in-memory cache saves a meaningful
// share of geocoder calls within one run; the Redis cache additionally
// survives across dataset refreshes.
type Cache interface {
	Get(ctx context.Context, key string) (postcode string, ok bool, err error)
	Set(ctx context.Context, key, postcode string) error
}

// CacheKey buckets a coordinate pair for cache lookup. Five decimal places
// is roughly one meter, well below the precision of the source data.
func CacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lon, 'f', 5, 64)
}

// MemoryCache is a process-local cache for single-run deduplication.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

// Get looks up a cached postcode.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	postcode, ok := c.entries[key]
	return postcode, ok, nil
}

// Set stores a postcode. Empty postcodes are cached too: a location the
// service does not know stays unknown within a run.
func (c *MemoryCache) Set(_ context.Context, key, postcode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = postcode
	return nil
}

// redisCacheTTL keeps entries across refreshes but not forever; postal
// boundaries do change.
const redisCacheTTL = 30 * 24 * time.Hour

// RedisCache persists resolved postcodes in Redis so repeated dataset
// refreshes do not re-geocode unchanged listings.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache backed by the given client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "oppscore:postcode:",
	}
}

// Get looks up a cached postcode.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	postcode, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}

	return postcode, true, nil
}

// Set stores a postcode with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key, postcode string) error {
	if err := c.client.Set(ctx, c.prefix+key, postcode, redisCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
