// Package cache stores enrichment results keyed by a normalized request
// fingerprint. Two backends are available: an in-process cache for single
// instances and Redis for sharing results across replicas. Both enforce the
// same TTL semantics and track hit/miss statistics.
package cache

import (
	"context"

	"product-enricher/internal/models"
)

// Stats is the statistics snapshot exposed on the cache stats endpoint
type Stats struct {
	Backend        string  `json:"backend"`
	Size           int     `json:"size"`
	MaxSize        int     `json:"max_size"`
	TTLSeconds     int     `json:"ttl_seconds"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	HitRatePercent float64 `json:"hit_rate_percent"`
}

// ResultCache caches enrichment results. Keys are derived from the product
// name and the options that shape the output; see Key for the exact
// fingerprint. Implementations must return copies: mutating a returned result
// must never affect the stored entry.
type ResultCache interface {
	// Get returns the cached result for the fingerprint, with
	// metadata.cached forced true. A miss returns (nil, false).
	Get(ctx context.Context, productName, language string, fields []string, webSearch bool) (*models.EnrichmentResult, bool)

	// Set stores a deep snapshot of the result under the fingerprint
	// computed from result.Product.Name and the call parameters.
	Set(ctx context.Context, result *models.EnrichmentResult, language string, fields []string, webSearch bool) error

	// Invalidate removes one entry, reporting whether it was present
	Invalidate(ctx context.Context, productName, language string, fields []string, webSearch bool) bool

	// Clear removes all entries and returns how many were removed
	Clear(ctx context.Context) int

	// Stats returns a statistics snapshot
	Stats(ctx context.Context) Stats
}

// hitRate computes the hit percentage rounded to two decimals
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	rate := float64(hits) / float64(total) * 100
	return float64(int(rate*100+0.5)) / 100
}
