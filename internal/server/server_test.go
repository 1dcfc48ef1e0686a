package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"product-enricher/internal/cache"
	"product-enricher/internal/common/logging"
	"product-enricher/internal/common/ratelimit"
	"product-enricher/internal/enricher"
	"product-enricher/internal/fields"
	"product-enricher/internal/handlers"
	"product-enricher/internal/models"
	"product-enricher/internal/provider"
	"product-enricher/internal/testutil"
)

func newTestRouter(t *testing.T, limiter *ratelimit.Limiter) http.Handler {
	t.Helper()
	logger := logging.NewDefaultLogger()
	primary := &testutil.MockProvider{
		ProviderName: provider.NameZhipu,
		ModelName:    "GLM-4.7",
		WebSearch:    true,
		EnrichFn: func(context.Context, models.ProductInput, models.EnrichmentOptions) (*provider.Enrichment, error) {
			return &provider.Enrichment{Product: models.NewEnrichedProduct(), Sources: []models.Source{}}, nil
		},
	}
	regional := &testutil.MockProvider{ProviderName: provider.NameCloudru, ModelName: "GigaChat", Unconfigured: true}
	e := enricher.New(primary, regional, cache.NewLocal(time.Hour, 100, logger), logger)
	h := handlers.New(e, fields.NewRegistry(), nil, 100, logger)
	return NewRouter(h, limiter)
}

func TestRouterDispatch(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/ping", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/fields", "", http.StatusOK},
		{http.MethodGet, "/api/v1/cache/stats", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cache/clear", "", http.StatusOK},
		{http.MethodPost, "/api/v1/products/enrich", `{"product":{"name":"Widget"}}`, http.StatusOK},
		{http.MethodGet, "/api/v1/products/enrich", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterEchoesRequestID(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterRateLimitsEnrichment(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled:  true,
		Requests: 2,
		Window:   time.Minute,
	})
	router := newTestRouter(t, limiter)

	enrich := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/enrich", strings.NewReader(`{"product":{"name":"Widget"}}`))
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, enrich())
	assert.Equal(t, http.StatusOK, enrich())
	assert.Equal(t, http.StatusTooManyRequests, enrich())

	// Unthrottled endpoints stay reachable.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
