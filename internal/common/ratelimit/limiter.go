// Package ratelimit provides a per-client token bucket limiter for the HTTP
// surface. Limiting is disabled by default and enabled through configuration.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter settings
type Config struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// DefaultConfig returns a disabled limiter allowing 100 requests per minute
// once enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Requests: 100,
		Window:   time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks a token bucket per client key (typically the remote IP).
// Idle buckets are pruned lazily so the map cannot grow without bound.
type Limiter struct {
	config Config
	limit  rate.Limit
	burst  int

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewLimiter creates a limiter from config
func NewLimiter(config Config) *Limiter {
	window := config.Window
	if window <= 0 {
		window = time.Minute
	}
	requests := config.Requests
	if requests <= 0 {
		requests = 100
	}
	return &Limiter{
		config:   config,
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		visitors: make(map[string]*visitor),
	}
}

// Enabled reports whether limiting is active
func (l *Limiter) Enabled() bool {
	return l.config.Enabled
}

// Allow reports whether the client identified by key may proceed. With
// limiting disabled every request is allowed.
func (l *Limiter) Allow(key string) bool {
	if !l.config.Enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= 10000 {
			l.prune(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

// prune drops buckets idle for more than three windows. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	idle := 3 * l.config.Window
	if idle <= 0 {
		idle = 3 * time.Minute
	}
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idle {
			delete(l.visitors, key)
		}
	}
}
