// Package cache provides an optional Redis-backed cache for analysis
// results, keyed by a hash of the normalized input text. A nil *Cache is a
// valid no-op instance, so callers never branch on whether caching is
// enabled.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "guardian:analyze:"

// Cache wraps a Redis client with a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at the given URL. An empty URL or a failed ping
// returns nil (caching disabled) rather than an error; the cache is an
// optimization, never a dependency.
func New(ctx context.Context, redisURL string, ttl time.Duration) *Cache {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[CACHE] Invalid Redis URL, caching disabled: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[CACHE] Redis unreachable, caching disabled: %v", err)
		_ = client.Close()
		return nil
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	log.Printf("[CACHE] Redis analyze cache enabled (ttl=%s)", ttl)
	return &Cache{client: client, ttl: ttl}
}

// Key derives the cache key for a text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get unmarshals a cached value into dst. Returns false on miss, any error,
// or a nil cache.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("[CACHE] Corrupt cache entry %s dropped: %v", key, err)
		_ = c.client.Del(ctx, key).Err()
		return false
	}
	return true
}

// Set stores a value under the key with the cache's TTL. Errors are logged,
// not returned.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[CACHE] Failed to marshal cache value: %v", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("[CACHE] Failed to set %s: %v", key, err)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
