package cache

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"product-enricher/internal/common/logging"
)

// Backend identifies a cache implementation
type Backend string

const (
	BackendLocal Backend = "local"
	BackendRedis Backend = "redis"
)

// Config holds cache construction settings
type Config struct {
	Backend   Backend
	TTL       time.Duration
	MaxSize   int
	RedisURL  string
	KeyPrefix string
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		Backend:   BackendLocal,
		TTL:       time.Hour,
		MaxSize:   1000,
		KeyPrefix: "enrich:",
	}
}

// New creates a result cache for the configured backend
func New(config Config, logger logging.Logger) (ResultCache, error) {
	switch config.Backend {
	case BackendLocal:
		return NewLocal(config.TTL, config.MaxSize, logger), nil

	case BackendRedis:
		if config.RedisURL == "" {
			return nil, fmt.Errorf("redis URL required for redis cache backend")
		}
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		return NewRedis(redis.NewClient(opts), config.KeyPrefix, config.TTL, config.MaxSize, logger), nil

	default:
		return nil, fmt.Errorf("unknown cache backend: %s", config.Backend)
	}
}
