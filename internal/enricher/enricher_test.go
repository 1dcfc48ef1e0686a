package enricher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-enricher/internal/cache"
	apperrors "product-enricher/internal/common/errors"
	"product-enricher/internal/common/logging"
	"product-enricher/internal/models"
	"product-enricher/internal/provider"
	"product-enricher/internal/testutil"
)

func newTestEnricher(t *testing.T, primary, regional *testutil.MockProvider) *Enricher {
	t.Helper()
	logger := logging.NewDefaultLogger()
	if primary.ProviderName == "" {
		primary.ProviderName = provider.NameZhipu
		primary.ModelName = "GLM-4.7"
		primary.WebSearch = true
	}
	if regional.ProviderName == "" {
		regional.ProviderName = provider.NameCloudru
		regional.ModelName = "GigaChat"
	}
	return New(primary, regional, cache.NewLocal(time.Hour, 1000, logger), logger)
}

func enrichmentWith(product models.EnrichedProduct, tokens int) *provider.Enrichment {
	return &provider.Enrichment{
		Product:    product,
		Sources:    []models.Source{},
		TokensUsed: tokens,
	}
}

func TestRoutingRussianOriginToRegional(t *testing.T) {
	primary := &testutil.MockProvider{}
	regional := &testutil.MockProvider{}
	e := newTestEnricher(t, primary, regional)

	for _, origin := range []string{"RU", "RUS", "ru", "rus"} {
		product := models.ProductInput{Name: "Товар", CountryOrigin: origin}
		assert.Equal(t, provider.NameCloudru, e.selectProvider(product.CountryOrigin).Name(), "origin %s", origin)
	}
}

func TestRoutingFallsBackWhenRegionalUnconfigured(t *testing.T) {
	primary := &testutil.MockProvider{}
	regional := &testutil.MockProvider{Unconfigured: true}
	e := newTestEnricher(t, primary, regional)

	assert.Equal(t, provider.NameZhipu, e.selectProvider("RU").Name())
}

func TestRoutingForeignOriginToPrimary(t *testing.T) {
	primary := &testutil.MockProvider{}
	regional := &testutil.MockProvider{}
	e := newTestEnricher(t, primary, regional)

	assert.Equal(t, provider.NameZhipu, e.selectProvider("CN").Name())
	assert.Equal(t, provider.NameZhipu, e.selectProvider("").Name())
}

func TestEnrichProductMetadata(t *testing.T) {
	primary := &testutil.MockProvider{
		EnrichFn: func(context.Context, models.ProductInput, models.EnrichmentOptions) (*provider.Enrichment, error) {
			enriched := models.NewEnrichedProduct()
			enriched.Description = "desc"
			return &provider.Enrichment{Product: enriched, Sources: []models.Source{}, TokensUsed: 42, ProcessingTimeMS: 1500}, nil
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	opts := models.DefaultEnrichmentOptions()
	result, err := e.EnrichProduct(context.Background(), models.ProductInput{Name: "Test"}, opts, true)
	require.NoError(t, err)

	assert.Equal(t, provider.NameZhipu, result.Metadata.LLMProvider)
	assert.Equal(t, "GLM-4.7", result.Metadata.ModelUsed)
	assert.Equal(t, 42, result.Metadata.TokensUsed)
	assert.Equal(t, int64(1500), result.Metadata.ProcessingTimeMS)
	assert.True(t, result.Metadata.WebSearchUsed)
	assert.False(t, result.Metadata.Cached)
	assert.False(t, result.Metadata.Timestamp.IsZero())
}

func TestEnrichProductRussianScenario(t *testing.T) {
	regional := &testutil.MockProvider{
		EnrichFn: func(_ context.Context, _ models.ProductInput, opts models.EnrichmentOptions) (*provider.Enrichment, error) {
			enriched := models.NewEnrichedProduct()
			enriched.Manufacturer = "Яндекс"
			enriched.Trademark = "Яндекс"
			enriched.Category = "Умные колонки"
			return enrichmentWith(enriched, 80), nil
		},
	}
	e := newTestEnricher(t, &testutil.MockProvider{}, regional)

	opts := models.DefaultEnrichmentOptions()
	opts.IncludeWebSearch = true
	opts.Fields = []string{"manufacturer", "trademark", "category"}

	result, err := e.EnrichProduct(context.Background(), models.ProductInput{Name: "Яндекс Станция Макс", CountryOrigin: "RU"}, opts, true)
	require.NoError(t, err)

	assert.Equal(t, "Яндекс", result.Enriched.Manufacturer)
	assert.Equal(t, provider.NameCloudru, result.Metadata.LLMProvider)
	// The regional backend has no web search, so the flag reflects
	// capability, not the request.
	assert.False(t, result.Metadata.WebSearchUsed)
}

func TestEnrichProductCacheIdempotence(t *testing.T) {
	primary := &testutil.MockProvider{}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	opts := models.DefaultEnrichmentOptions()
	product := models.ProductInput{Name: "Cached Product"}

	first, err := e.EnrichProduct(context.Background(), product, opts, true)
	require.NoError(t, err)
	assert.False(t, first.Metadata.Cached)

	second, err := e.EnrichProduct(context.Background(), product, opts, true)
	require.NoError(t, err)
	assert.True(t, second.Metadata.Cached)

	assert.Equal(t, 1, primary.Calls())
}

func TestEnrichProductCacheBypass(t *testing.T) {
	primary := &testutil.MockProvider{}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	opts := models.DefaultEnrichmentOptions()
	product := models.ProductInput{Name: "Uncached"}

	_, err := e.EnrichProduct(context.Background(), product, opts, false)
	require.NoError(t, err)
	_, err = e.EnrichProduct(context.Background(), product, opts, false)
	require.NoError(t, err)

	assert.Equal(t, 2, primary.Calls())
}

func TestEnrichProductWrapsProviderError(t *testing.T) {
	cause := errors.New("backend exploded")
	primary := &testutil.MockProvider{
		EnrichFn: func(context.Context, models.ProductInput, models.EnrichmentOptions) (*provider.Enrichment, error) {
			return nil, cause
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	_, err := e.EnrichProduct(context.Background(), models.ProductInput{Name: "Doomed"}, models.DefaultEnrichmentOptions(), true)
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEnrichment))
	assert.ErrorIs(t, err, cause)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "api_call", appErr.Context["stage"])
	assert.Equal(t, "Doomed", appErr.Context["product_name"])
}

func batchProducts(names ...string) []models.ProductInput {
	products := make([]models.ProductInput, len(names))
	for i, name := range names {
		products[i] = models.ProductInput{Name: name}
	}
	return products
}

func TestBatchOrderPreservation(t *testing.T) {
	// Later items finish first; results must still line up by index.
	primary := &testutil.MockProvider{
		EnrichFn: func(_ context.Context, product models.ProductInput, _ models.EnrichmentOptions) (*provider.Enrichment, error) {
			switch product.Name {
			case "A":
				time.Sleep(60 * time.Millisecond)
			case "B":
				time.Sleep(30 * time.Millisecond)
			}
			enriched := models.NewEnrichedProduct()
			enriched.Description = "desc " + product.Name
			return enrichmentWith(enriched, 10), nil
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	result, err := e.EnrichBatch(context.Background(), batchProducts("A", "B", "C"), models.DefaultEnrichmentOptions(), models.DefaultBatchOptions(), false)
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	for i, name := range []string{"A", "B", "C"} {
		assert.Equal(t, i, result.Results[i].Index)
		require.NotNil(t, result.Results[i].Result)
		assert.Equal(t, "desc "+name, result.Results[i].Result.Enriched.Description)
	}
	assert.Equal(t, 3, result.Summary.Succeeded)
	assert.Equal(t, 30, result.Summary.TotalTokens)
}

func TestBatchContinueIsolatesFailures(t *testing.T) {
	primary := &testutil.MockProvider{
		EnrichFn: func(_ context.Context, product models.ProductInput, _ models.EnrichmentOptions) (*provider.Enrichment, error) {
			if product.Name == "B" {
				return nil, errors.New("item failure")
			}
			return enrichmentWith(models.NewEnrichedProduct(), 5), nil
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	result, err := e.EnrichBatch(context.Background(), batchProducts("A", "B", "C"), models.DefaultEnrichmentOptions(), models.DefaultBatchOptions(), false)
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.Contains(t, result.Results[1].Error, "item failure")
	assert.True(t, result.Results[2].Success)
	assert.Equal(t, 2, result.Summary.Succeeded)
	assert.Equal(t, 1, result.Summary.Failed)
}

func TestBatchStopShortCircuits(t *testing.T) {
	primary := &testutil.MockProvider{
		EnrichFn: func(_ context.Context, product models.ProductInput, _ models.EnrichmentOptions) (*provider.Enrichment, error) {
			if product.Name == "B" {
				return nil, errors.New("item failure")
			}
			return enrichmentWith(models.NewEnrichedProduct(), 5), nil
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	batchOpts := models.BatchOptions{FailStrategy: models.FailStrategyStop}

	result, err := e.EnrichBatch(context.Background(), batchProducts("A", "B", "C"), models.DefaultEnrichmentOptions(), batchOpts, false)
	require.NoError(t, err)

	// Item C is never attempted.
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.Equal(t, 2, result.Summary.Total)
	assert.Equal(t, 2, primary.Calls())
}

func TestBatchConcurrencyBound(t *testing.T) {
	var inFlight, peak int32
	primary := &testutil.MockProvider{
		EnrichFn: func(context.Context, models.ProductInput, models.EnrichmentOptions) (*provider.Enrichment, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return enrichmentWith(models.NewEnrichedProduct(), 1), nil
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("P%d", i)
	}
	batchOpts := models.BatchOptions{MaxConcurrent: 2}

	result, err := e.EnrichBatch(context.Background(), batchProducts(names...), models.DefaultEnrichmentOptions(), batchOpts, false)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Summary.Succeeded)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestBatchPerProductTimeout(t *testing.T) {
	primary := &testutil.MockProvider{
		EnrichFn: func(ctx context.Context, _ models.ProductInput, _ models.EnrichmentOptions) (*provider.Enrichment, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	batchOpts := models.BatchOptions{TimeoutPerProduct: 10}

	// The mock blocks until its context expires, which the 10s per-product
	// deadline bounds; shrink the wait by cancelling the parent sooner.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := e.EnrichBatch(ctx, batchProducts("Slow"), models.DefaultEnrichmentOptions(), batchOpts, false)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Success)
	assert.NotEmpty(t, result.Results[0].Error)
}

func TestBatchUsesCacheAcrossItems(t *testing.T) {
	primary := &testutil.MockProvider{
		EnrichFn: func(_ context.Context, product models.ProductInput, _ models.EnrichmentOptions) (*provider.Enrichment, error) {
			return enrichmentWith(models.NewEnrichedProduct(), 7), nil
		},
	}
	e := newTestEnricher(t, primary, &testutil.MockProvider{})

	batchOpts := models.BatchOptions{MaxConcurrent: 1}

	result, err := e.EnrichBatch(context.Background(), batchProducts("Same", "Same", "Same"), models.DefaultEnrichmentOptions(), batchOpts, true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Summary.Succeeded)
	// Sequential duplicates hit the cache after the first call.
	assert.Equal(t, 1, primary.Calls())
}

func TestHealthStatuses(t *testing.T) {
	primary := &testutil.MockProvider{}
	regional := &testutil.MockProvider{}
	e := newTestEnricher(t, primary, regional)

	status := e.Health(context.Background())
	assert.Equal(t, StatusConnected, status.ZhipuAPI)
	assert.Equal(t, StatusConnected, status.CloudruAPI)
	assert.Equal(t, "local", status.Cache.Backend)
}

func TestHealthRegionalNotConfigured(t *testing.T) {
	regional := &testutil.MockProvider{
		Unconfigured: true,
		HealthCheckFn: func(context.Context) error {
			t.Fatal("unconfigured provider must not be probed")
			return nil
		},
	}
	e := newTestEnricher(t, &testutil.MockProvider{}, regional)

	status := e.Health(context.Background())
	assert.Equal(t, StatusNotConfigured, status.CloudruAPI)
}

func TestHealthDisconnected(t *testing.T) {
	primary := &testutil.MockProvider{
		HealthCheckFn: func(context.Context) error { return errors.New("down") },
	}
	regional := &testutil.MockProvider{
		HealthCheckFn: func(context.Context) error { return errors.New("down") },
	}
	e := newTestEnricher(t, primary, regional)

	status := e.Health(context.Background())
	assert.Equal(t, StatusDisconnected, status.ZhipuAPI)
	assert.Equal(t, StatusDisconnected, status.CloudruAPI)
}

func TestClearCache(t *testing.T) {
	e := newTestEnricher(t, &testutil.MockProvider{}, &testutil.MockProvider{})

	_, err := e.EnrichProduct(context.Background(), models.ProductInput{Name: "A"}, models.DefaultEnrichmentOptions(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, e.ClearCache(context.Background()))
	assert.Equal(t, 0, e.CacheStats(context.Background()).Size)
}
