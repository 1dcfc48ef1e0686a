// Package enricher contains the orchestration core: provider routing, cache
// consultation, result assembly, and concurrency-controlled batch runs.
package enricher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"product-enricher/internal/cache"
	apperrors "product-enricher/internal/common/errors"
	"product-enricher/internal/common/logging"
	"product-enricher/internal/metrics"
	"product-enricher/internal/models"
	"product-enricher/internal/provider"
)

// Country codes routed to the regional provider
var russianCountryCodes = map[string]bool{
	"RU":  true,
	"RUS": true,
}

// Enricher routes enrichment requests between the primary and regional
// providers and caches completed results. The regional provider is used for
// Russian-origin products when it has credentials; everything else goes to
// the primary provider.
type Enricher struct {
	primary  provider.Provider
	regional provider.Provider
	cache    cache.ResultCache
	logger   logging.Logger
}

// New creates an enricher with the given providers and result cache
func New(primary, regional provider.Provider, resultCache cache.ResultCache, logger logging.Logger) *Enricher {
	logger.Info("enricher initialized",
		logging.Field{Key: "primary", Value: primary.Name()},
		logging.Field{Key: "regional", Value: regional.Name()},
		logging.Field{Key: "regional_configured", Value: regional.IsConfigured()},
	)
	return &Enricher{
		primary:  primary,
		regional: regional,
		cache:    resultCache,
		logger:   logger,
	}
}

// selectProvider picks the provider for a product's country of origin
func (e *Enricher) selectProvider(countryOrigin string) provider.Provider {
	if countryOrigin != "" && russianCountryCodes[strings.ToUpper(countryOrigin)] && e.regional.IsConfigured() {
		e.logger.Debug("routing to regional provider", logging.Field{Key: "country_origin", Value: countryOrigin})
		return e.regional
	}
	return e.primary
}

// EnrichProduct enriches a single product. The cache is consulted before the
// provider is called and updated after a successful call; useCache false
// bypasses both sides.
func (e *Enricher) EnrichProduct(ctx context.Context, product models.ProductInput, options models.EnrichmentOptions, useCache bool) (*models.EnrichmentResult, error) {
	options.Normalize()
	client := e.selectProvider(product.CountryOrigin)

	e.logger.Info("enriching product",
		logging.Field{Key: "product_name", Value: product.Name},
		logging.Field{Key: "country_origin", Value: product.CountryOrigin},
		logging.Field{Key: "llm_provider", Value: client.Name()},
		logging.Field{Key: "language", Value: options.Language},
		logging.Field{Key: "web_search", Value: options.IncludeWebSearch},
	)

	if useCache {
		if cached, found := e.cache.Get(ctx, product.Name, options.Language, options.Fields, options.IncludeWebSearch); found {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			e.logger.Info("returning cached result", logging.Field{Key: "product_name", Value: product.Name})
			return cached, nil
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	enrichment, err := client.Enrich(ctx, product, options)
	if err != nil {
		metrics.EnrichmentsTotal.WithLabelValues(client.Name(), "error").Inc()
		e.logger.Error("enrichment failed", err,
			logging.Field{Key: "product_name", Value: product.Name},
			logging.Field{Key: "llm_provider", Value: client.Name()},
		)
		return nil, apperrors.EnrichmentError(product.Name, "api_call", err)
	}

	result := &models.EnrichmentResult{
		Product:  product,
		Enriched: enrichment.Product,
		Sources:  enrichment.Sources,
		Metadata: models.EnrichmentMetadata{
			ModelUsed:        client.Model(),
			LLMProvider:      client.Name(),
			TokensUsed:       enrichment.TokensUsed,
			ProcessingTimeMS: enrichment.ProcessingTimeMS,
			WebSearchUsed:    options.IncludeWebSearch && client.SupportsWebSearch(),
			Cached:           false,
			Timestamp:        time.Now().UTC(),
		},
	}

	if useCache {
		if err := e.cache.Set(ctx, result, options.Language, options.Fields, options.IncludeWebSearch); err != nil {
			e.logger.Warn("failed to cache result",
				logging.Field{Key: "product_name", Value: product.Name},
				logging.Err(err),
			)
		}
	}

	metrics.EnrichmentsTotal.WithLabelValues(client.Name(), "success").Inc()
	metrics.EnrichmentDuration.WithLabelValues(client.Name()).Observe(float64(enrichment.ProcessingTimeMS) / 1000)
	metrics.TokensUsed.WithLabelValues(client.Name()).Add(float64(enrichment.TokensUsed))

	e.logger.Info("product enriched",
		logging.Field{Key: "product_name", Value: product.Name},
		logging.Field{Key: "llm_provider", Value: client.Name()},
		logging.Field{Key: "tokens", Value: enrichment.TokensUsed},
		logging.Field{Key: "time_ms", Value: enrichment.ProcessingTimeMS},
	)

	return result, nil
}

// EnrichBatch enriches multiple products. Under the "continue" strategy all
// products run concurrently through a worker pool bounded by MaxConcurrent,
// and results are reassembled in request order. Under "stop" the products run
// strictly sequentially and the run short-circuits after the first failure.
// Each product gets its own timeout.
func (e *Enricher) EnrichBatch(ctx context.Context, products []models.ProductInput, options models.EnrichmentOptions, batchOpts models.BatchOptions, useCache bool) (*models.BatchEnrichmentResult, error) {
	start := time.Now()

	options.Normalize()
	batchOpts.Normalize()

	e.logger.Info("batch enrichment started",
		logging.Field{Key: "total_products", Value: len(products)},
		logging.Field{Key: "max_concurrent", Value: batchOpts.MaxConcurrent},
		logging.Field{Key: "fail_strategy", Value: batchOpts.FailStrategy},
	)
	metrics.BatchSize.Observe(float64(len(products)))

	perProduct := time.Duration(batchOpts.TimeoutPerProduct) * time.Second

	processOne := func(index int, product models.ProductInput) models.BatchResultItem {
		itemCtx, cancel := context.WithTimeout(ctx, perProduct)
		defer cancel()

		result, err := e.EnrichProduct(itemCtx, product, options, useCache)
		if err != nil {
			if itemCtx.Err() == context.DeadlineExceeded {
				return models.BatchResultItem{
					Index:   index,
					Success: false,
					Error:   fmt.Sprintf("Timeout after %ds", batchOpts.TimeoutPerProduct),
				}
			}
			return models.BatchResultItem{
				Index:   index,
				Success: false,
				Error:   err.Error(),
			}
		}
		return models.BatchResultItem{
			Index:   index,
			Success: true,
			Result:  result,
		}
	}

	var results []models.BatchResultItem
	if batchOpts.FailStrategy == models.FailStrategyContinue {
		results = make([]models.BatchResultItem, len(products))
		sem := make(chan struct{}, batchOpts.MaxConcurrent)
		var wg sync.WaitGroup
		for i, product := range products {
			wg.Add(1)
			go func(index int, p models.ProductInput) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[index] = processOne(index, p)
			}(i, product)
		}
		wg.Wait()
	} else {
		for i, product := range products {
			item := processOne(i, product)
			results = append(results, item)
			if !item.Success {
				e.logger.Warn("batch stopped on failure",
					logging.Field{Key: "index", Value: i},
					logging.Field{Key: "product_name", Value: product.Name},
				)
				break
			}
		}
	}

	summary := models.BatchSummary{
		Total:       len(results),
		TotalTimeMS: time.Since(start).Milliseconds(),
	}
	for _, item := range results {
		if item.Success && item.Result != nil {
			summary.Succeeded++
			summary.TotalTokens += item.Result.Metadata.TokensUsed
		} else {
			summary.Failed++
		}
	}

	e.logger.Info("batch enrichment completed",
		logging.Field{Key: "total", Value: summary.Total},
		logging.Field{Key: "succeeded", Value: summary.Succeeded},
		logging.Field{Key: "failed", Value: summary.Failed},
		logging.Field{Key: "total_time_ms", Value: summary.TotalTimeMS},
	)

	return &models.BatchEnrichmentResult{Results: results, Summary: summary}, nil
}

// Provider connection states reported by Health
const (
	StatusConnected     = "connected"
	StatusDisconnected  = "disconnected"
	StatusNotConfigured = "not_configured"
)

// HealthStatus is the aggregate health of the enrichment backends
type HealthStatus struct {
	ZhipuAPI   string      `json:"zhipu_api"`
	CloudruAPI string      `json:"cloudru_api"`
	Cache      cache.Stats `json:"cache"`
}

// Health probes both providers. The regional provider is only probed when it
// has credentials; otherwise it reports not_configured without a network call.
func (e *Enricher) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		ZhipuAPI:   StatusConnected,
		CloudruAPI: StatusNotConfigured,
		Cache:      e.cache.Stats(ctx),
	}

	if err := e.primary.HealthCheck(ctx); err != nil {
		e.logger.Warn("primary provider health check failed", logging.Err(err))
		status.ZhipuAPI = StatusDisconnected
	}

	if e.regional.IsConfigured() {
		if err := e.regional.HealthCheck(ctx); err != nil {
			e.logger.Warn("regional provider health check failed", logging.Err(err))
			status.CloudruAPI = StatusDisconnected
		} else {
			status.CloudruAPI = StatusConnected
		}
	}

	return status
}

// CacheStats returns the cache statistics snapshot
func (e *Enricher) CacheStats(ctx context.Context) cache.Stats {
	return e.cache.Stats(ctx)
}

// ClearCache removes all cached results and returns the number removed
func (e *Enricher) ClearCache(ctx context.Context) int {
	return e.cache.Clear(ctx)
}
