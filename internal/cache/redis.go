package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"product-enricher/internal/common/logging"
	"product-enricher/internal/models"
)

// Redis is the distributed cache backend. TTL enforcement is delegated to
// Redis key expiry; MaxSize is advisory only since eviction policy belongs to
// the Redis server configuration. Hit/miss counters are per-process.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	maxSize   int
	logger    logging.Logger

	hits   int64
	misses int64
}

// NewRedis creates a Redis-backed result cache
func NewRedis(client *redis.Client, keyPrefix string, ttl time.Duration, maxSize int, logger logging.Logger) *Redis {
	c := &Redis{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		maxSize:   maxSize,
		logger:    logger,
	}
	logger.Info("cache initialized",
		logging.Field{Key: "backend", Value: "redis"},
		logging.Field{Key: "ttl_seconds", Value: int(ttl.Seconds())},
		logging.Field{Key: "key_prefix", Value: keyPrefix},
	)
	return c
}

// Get implements ResultCache. Connection errors count as misses so a Redis
// outage degrades to uncached operation instead of failing requests.
func (c *Redis) Get(ctx context.Context, productName, language string, fields []string, webSearch bool) (*models.EnrichmentResult, bool) {
	key := Key(productName, language, fields, webSearch)

	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		if err != redis.Nil {
			c.logger.Warn("redis get failed", logging.Field{Key: "key", Value: key[:8]}, logging.Err(err))
		}
		return nil, false
	}

	var result models.EnrichmentResult
	if err := json.Unmarshal(data, &result); err != nil {
		atomic.AddInt64(&c.misses, 1)
		c.logger.Warn("cache entry corrupted", logging.Field{Key: "key", Value: key[:8]}, logging.Err(err))
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	result.Metadata.Cached = true
	return &result, true
}

// Set implements ResultCache
func (c *Redis) Set(ctx context.Context, result *models.EnrichmentResult, language string, fields []string, webSearch bool) error {
	key := Key(result.Product.Name, language, fields, webSearch)

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.keyPrefix+key, data, c.ttl).Err()
}

// Invalidate implements ResultCache
func (c *Redis) Invalidate(ctx context.Context, productName, language string, fields []string, webSearch bool) bool {
	key := Key(productName, language, fields, webSearch)
	n, err := c.client.Del(ctx, c.keyPrefix+key).Result()
	if err != nil {
		c.logger.Warn("redis delete failed", logging.Field{Key: "key", Value: key[:8]}, logging.Err(err))
		return false
	}
	return n > 0
}

// Clear implements ResultCache. Only keys under the prefix are removed.
func (c *Redis) Clear(ctx context.Context) int {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("redis scan failed", logging.Err(err))
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis delete failed", logging.Err(err))
		return 0
	}
	c.logger.Info("cache cleared", logging.Field{Key: "entries_removed", Value: len(keys)})
	return len(keys)
}

// Stats implements ResultCache
func (c *Redis) Stats(ctx context.Context) Stats {
	size := 0
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		size++
	}

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	return Stats{
		Backend:        "redis",
		Size:           size,
		MaxSize:        c.maxSize,
		TTLSeconds:     int(c.ttl.Seconds()),
		Hits:           hits,
		Misses:         misses,
		HitRatePercent: hitRate(hits, misses),
	}
}
