// Package provider implements the LLM backends used for product enrichment.
// Each backend talks an OpenAI-compatible chat completion dialect; the
// enricher selects one per request and treats them interchangeably.
package provider

import (
	"context"

	"product-enricher/internal/models"
)

// Provider names used in routing and result metadata
const (
	NameZhipu   = "zhipuai"
	NameCloudru = "cloudru"
)

// Enrichment is the outcome of a single provider call
type Enrichment struct {
	Product          models.EnrichedProduct
	Sources          []models.Source
	TokensUsed       int
	ProcessingTimeMS int64
}

// Provider is an LLM backend capable of enriching a product
type Provider interface {
	// Name returns the provider identifier used in metadata and routing
	Name() string

	// Model returns the model identifier sent with each request
	Model() string

	// IsConfigured reports whether the provider has credentials
	IsConfigured() bool

	// SupportsWebSearch reports whether the backend can ground answers in
	// web search results
	SupportsWebSearch() bool

	// Enrich generates the requested fields for a product. Transient
	// transport failures are retried internally; API-level errors are
	// returned without retry.
	Enrich(ctx context.Context, product models.ProductInput, options models.EnrichmentOptions) (*Enrichment, error)

	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error
}
