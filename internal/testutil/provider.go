// Package testutil provides scripted doubles shared across package tests.
package testutil

import (
	"context"
	"sync"

	"product-enricher/internal/models"
	"product-enricher/internal/provider"
)

// MockProvider is a scriptable provider.Provider. The zero value is a
// configured provider that returns an empty enrichment on every call.
type MockProvider struct {
	ProviderName  string
	ModelName     string
	Unconfigured  bool
	WebSearch     bool
	EnrichFn      func(ctx context.Context, product models.ProductInput, options models.EnrichmentOptions) (*provider.Enrichment, error)
	HealthCheckFn func(ctx context.Context) error

	mu    sync.Mutex
	calls int
}

// Name implements provider.Provider
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Model implements provider.Provider
func (m *MockProvider) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// IsConfigured implements provider.Provider
func (m *MockProvider) IsConfigured() bool { return !m.Unconfigured }

// SupportsWebSearch implements provider.Provider
func (m *MockProvider) SupportsWebSearch() bool { return m.WebSearch }

// Enrich implements provider.Provider
func (m *MockProvider) Enrich(ctx context.Context, product models.ProductInput, options models.EnrichmentOptions) (*provider.Enrichment, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.EnrichFn != nil {
		return m.EnrichFn(ctx, product, options)
	}
	return &provider.Enrichment{
		Product: models.NewEnrichedProduct(),
		Sources: []models.Source{},
	}, nil
}

// HealthCheck implements provider.Provider
func (m *MockProvider) HealthCheck(ctx context.Context) error {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return nil
}

// Calls returns how many times Enrich was invoked
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
