package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"product-enricher/internal/common/logging"
	"product-enricher/internal/models"
)

// Local is the in-process cache backend built on patrickmn/go-cache. Entries
// are stored as JSON snapshots, which gives deep-copy semantics on both set
// and get. go-cache handles TTL expiry; capacity eviction (oldest insertion
// first) is layered on top because go-cache has no size limit of its own.
type Local struct {
	store   *gocache.Cache
	ttl     time.Duration
	maxSize int
	logger  logging.Logger

	mu    sync.Mutex
	order []string

	hits   int64
	misses int64
}

// NewLocal creates a local cache with the given TTL and capacity
func NewLocal(ttl time.Duration, maxSize int, logger logging.Logger) *Local {
	c := &Local{
		store:   gocache.New(ttl, 2*ttl),
		ttl:     ttl,
		maxSize: maxSize,
		logger:  logger,
	}
	logger.Info("cache initialized",
		logging.Field{Key: "backend", Value: "local"},
		logging.Field{Key: "ttl_seconds", Value: int(ttl.Seconds())},
		logging.Field{Key: "max_size", Value: maxSize},
	)
	return c
}

// Get implements ResultCache
func (c *Local) Get(_ context.Context, productName, language string, fields []string, webSearch bool) (*models.EnrichmentResult, bool) {
	key := Key(productName, language, fields, webSearch)

	data, found := c.store.Get(key)
	if !found {
		atomic.AddInt64(&c.misses, 1)
		c.logger.Debug("cache miss", logging.Field{Key: "key", Value: key[:8]}, logging.Field{Key: "product_name", Value: productName})
		return nil, false
	}

	var result models.EnrichmentResult
	if err := json.Unmarshal(data.([]byte), &result); err != nil {
		atomic.AddInt64(&c.misses, 1)
		c.logger.Warn("cache entry corrupted", logging.Field{Key: "key", Value: key[:8]}, logging.Err(err))
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	c.logger.Debug("cache hit", logging.Field{Key: "key", Value: key[:8]}, logging.Field{Key: "product_name", Value: productName})
	result.Metadata.Cached = true
	return &result, true
}

// Set implements ResultCache
func (c *Local) Set(_ context.Context, result *models.EnrichmentResult, language string, fields []string, webSearch bool) error {
	key := Key(result.Product.Name, language, fields, webSearch)

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Eviction and insertion stay under one lock so concurrent writers at
	// capacity cannot both pass the size check and overshoot the bound.
	c.mu.Lock()
	c.remember(key)
	c.store.Set(key, data, c.ttl)
	c.mu.Unlock()

	c.logger.Debug("cache set", logging.Field{Key: "key", Value: key[:8]}, logging.Field{Key: "product_name", Value: result.Product.Name})
	return nil
}

// remember records insertion order and evicts the oldest live entries when
// the cache is at capacity. Caller holds c.mu.
func (c *Local) remember(key string) {
	c.forget(key)

	for c.store.ItemCount() >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.store.Delete(oldest)
	}

	c.order = append(c.order, key)
}

// Invalidate implements ResultCache
func (c *Local) Invalidate(_ context.Context, productName, language string, fields []string, webSearch bool) bool {
	key := Key(productName, language, fields, webSearch)

	c.mu.Lock()
	_, found := c.store.Get(key)
	if found {
		c.store.Delete(key)
		c.forget(key)
	}
	c.mu.Unlock()

	if !found {
		return false
	}
	c.logger.Debug("cache invalidated", logging.Field{Key: "key", Value: key[:8]}, logging.Field{Key: "product_name", Value: productName})
	return true
}

// forget drops a key from the insertion-order index. Caller holds c.mu.
func (c *Local) forget(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Clear implements ResultCache
func (c *Local) Clear(_ context.Context) int {
	count := c.store.ItemCount()
	c.store.Flush()

	c.mu.Lock()
	c.order = nil
	c.mu.Unlock()

	c.logger.Info("cache cleared", logging.Field{Key: "entries_removed", Value: count})
	return count
}

// Stats implements ResultCache
func (c *Local) Stats(_ context.Context) Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	return Stats{
		Backend:        "local",
		Size:           c.store.ItemCount(),
		MaxSize:        c.maxSize,
		TTLSeconds:     int(c.ttl.Seconds()),
		Hits:           hits,
		Misses:         misses,
		HitRatePercent: hitRate(hits, misses),
	}
}
