package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "product-enricher/internal/common/errors"
	"product-enricher/internal/common/logging"
	"product-enricher/internal/common/utils"
	"product-enricher/internal/fields"
	"product-enricher/internal/models"
	"product-enricher/internal/prompt"
)

// timeoutErr satisfies net.Error so it classifies as transient
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type fakeCall struct {
	resp *chatResponse
	err  error
}

// fakeCompleter replays a scripted sequence of results and records requests
type fakeCompleter struct {
	script  []fakeCall
	calls   []chatRequest
	pingErr error
}

func (f *fakeCompleter) Complete(_ context.Context, req chatRequest) (*chatResponse, error) {
	f.calls = append(f.calls, req)
	if len(f.script) == 0 {
		return &chatResponse{Content: "{}"}, nil
	}
	call := f.script[0]
	if len(f.script) > 1 {
		f.script = f.script[1:]
	}
	return call.resp, call.err
}

func (f *fakeCompleter) Ping(context.Context) error { return f.pingErr }

// fastRetry keeps the 3-attempt bound but drops the delays for tests
func fastRetry() utils.RetryConfig {
	cfg := utils.DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	return cfg
}

func newTestZhipu(t *testing.T, fake *fakeCompleter) *Zhipu {
	t.Helper()
	engine, err := prompt.NewEngine()
	require.NoError(t, err)
	logger := logging.NewDefaultLogger()
	z := NewZhipu(ZhipuConfig{APIKey: "test-key", Model: "GLM-4.7"}, engine, NewParser(fields.NewRegistry(), logger), logger)
	z.completer = fake
	z.retryCfg = fastRetry()
	return z
}

func newTestCloudru(t *testing.T, fake *fakeCompleter) *Cloudru {
	t.Helper()
	engine, err := prompt.NewEngine()
	require.NoError(t, err)
	logger := logging.NewDefaultLogger()
	c := NewCloudru(CloudruConfig{APIKey: "test-key", Model: "GigaChat"}, engine, NewParser(fields.NewRegistry(), logger), logger)
	c.completer = fake
	c.retryCfg = fastRetry()
	return c
}

func TestZhipuEnrichSuccess(t *testing.T) {
	fake := &fakeCompleter{script: []fakeCall{
		{resp: &chatResponse{Content: `{"description": "A cartridge", "features": ["Original"]}`, TokensUsed: 120}},
	}}
	z := newTestZhipu(t, fake)

	opts := models.DefaultEnrichmentOptions()
	opts.Fields = []string{"description", "features"}

	result, err := z.Enrich(context.Background(), models.ProductInput{Name: "Картридж HP 123XL"}, opts)
	require.NoError(t, err)

	assert.Equal(t, "A cartridge", result.Product.Description)
	assert.Equal(t, []string{"Original"}, result.Product.Features)
	assert.Equal(t, 120, result.TokensUsed)
	assert.Empty(t, result.Sources)
}

func TestZhipuRequestParameters(t *testing.T) {
	fake := &fakeCompleter{}
	z := newTestZhipu(t, fake)

	opts := models.DefaultEnrichmentOptions()
	opts.IncludeWebSearch = true

	_, err := z.Enrich(context.Background(), models.ProductInput{Name: "Ноутбук ASUS ROG Strix G16"}, opts)
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	req := fake.calls[0]
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, int64(4000), req.MaxTokens)
	assert.Zero(t, req.TopP)
	assert.True(t, req.WebSearch)
	assert.Contains(t, req.User, "Ноутбук ASUS ROG Strix G16")
	assert.Contains(t, req.System, "Russian")
}

func TestZhipuWebSearchDisabled(t *testing.T) {
	fake := &fakeCompleter{}
	z := newTestZhipu(t, fake)

	opts := models.DefaultEnrichmentOptions()
	opts.IncludeWebSearch = false

	_, err := z.Enrich(context.Background(), models.ProductInput{Name: "Test"}, opts)
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	assert.False(t, fake.calls[0].WebSearch)
}

func TestZhipuRetriesTransientErrors(t *testing.T) {
	fake := &fakeCompleter{script: []fakeCall{
		{err: timeoutErr{}},
		{err: timeoutErr{}},
		{resp: &chatResponse{Content: `{"description": "Recovered"}`, TokensUsed: 50}},
	}}
	z := newTestZhipu(t, fake)

	opts := models.DefaultEnrichmentOptions()
	opts.Fields = []string{"description"}

	result, err := z.Enrich(context.Background(), models.ProductInput{Name: "Test"}, opts)
	require.NoError(t, err)
	assert.Len(t, fake.calls, 3)
	assert.Equal(t, "Recovered", result.Product.Description)
}

func TestZhipuRetryBound(t *testing.T) {
	fake := &fakeCompleter{script: []fakeCall{{err: timeoutErr{}}}}
	z := newTestZhipu(t, fake)

	_, err := z.Enrich(context.Background(), models.ProductInput{Name: "Test"}, models.DefaultEnrichmentOptions())
	require.Error(t, err)

	assert.Len(t, fake.calls, 3)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeProviderAPI))
}

func TestZhipuAPIErrorNotRetried(t *testing.T) {
	fake := &fakeCompleter{script: []fakeCall{{err: errors.New("invalid request")}}}
	z := newTestZhipu(t, fake)

	_, err := z.Enrich(context.Background(), models.ProductInput{Name: "Test"}, models.DefaultEnrichmentOptions())
	require.Error(t, err)

	assert.Len(t, fake.calls, 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeProviderAPI))
}

func TestZhipuUnconfigured(t *testing.T) {
	engine, err := prompt.NewEngine()
	require.NoError(t, err)
	logger := logging.NewDefaultLogger()
	z := NewZhipu(ZhipuConfig{}, engine, NewParser(fields.NewRegistry(), logger), logger)

	assert.False(t, z.IsConfigured())

	_, err = z.Enrich(context.Background(), models.ProductInput{Name: "Test"}, models.DefaultEnrichmentOptions())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestZhipuHealthCheck(t *testing.T) {
	fake := &fakeCompleter{}
	z := newTestZhipu(t, fake)
	assert.NoError(t, z.HealthCheck(context.Background()))

	fake.pingErr = errors.New("connection refused")
	assert.Error(t, z.HealthCheck(context.Background()))
}

func TestCloudruRequestParameters(t *testing.T) {
	fake := &fakeCompleter{}
	c := newTestCloudru(t, fake)

	// Web search must stay off even when the caller requested it.
	opts := models.DefaultEnrichmentOptions()
	opts.IncludeWebSearch = true
	opts.Fields = []string{"manufacturer", "trademark", "category"}

	_, err := c.Enrich(context.Background(), models.ProductInput{Name: "Яндекс Станция Макс"}, opts)
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	req := fake.calls[0]
	assert.Equal(t, 0.5, req.Temperature)
	assert.Equal(t, int64(2500), req.MaxTokens)
	assert.Equal(t, 0.95, req.TopP)
	assert.False(t, req.WebSearch)
	assert.Contains(t, req.System, "ПРОИЗВОДИТЕЛЬ")
	assert.Contains(t, req.User, "Яндекс Станция Макс")
}

func TestCloudruEnrichSuccess(t *testing.T) {
	fake := &fakeCompleter{script: []fakeCall{
		{resp: &chatResponse{Content: `{"manufacturer": "Яндекс", "trademark": "Яндекс", "category": "Умные колонки"}`, TokensUsed: 80}},
	}}
	c := newTestCloudru(t, fake)

	opts := models.DefaultEnrichmentOptions()
	opts.Fields = []string{"manufacturer", "trademark", "category"}

	result, err := c.Enrich(context.Background(), models.ProductInput{Name: "Яндекс Станция Макс", CountryOrigin: "RU"}, opts)
	require.NoError(t, err)

	assert.Equal(t, "Яндекс", result.Product.Manufacturer)
	assert.Equal(t, "Яндекс", result.Product.Trademark)
	assert.Equal(t, "Умные колонки", result.Product.Category)
	assert.Equal(t, 80, result.TokensUsed)
}

func TestCloudruUnconfigured(t *testing.T) {
	engine, err := prompt.NewEngine()
	require.NoError(t, err)
	logger := logging.NewDefaultLogger()
	c := NewCloudru(CloudruConfig{}, engine, NewParser(fields.NewRegistry(), logger), logger)

	assert.False(t, c.IsConfigured())
	assert.False(t, c.SupportsWebSearch())

	_, err = c.Enrich(context.Background(), models.ProductInput{Name: "Test"}, models.DefaultEnrichmentOptions())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(timeoutErr{}))
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(errors.New("bad request")))
	assert.False(t, isTransient(nil))
}
