package provider

import (
	"context"
	"time"

	apperrors "product-enricher/internal/common/errors"
	"product-enricher/internal/common/logging"
	"product-enricher/internal/common/utils"
	"product-enricher/internal/models"
	"product-enricher/internal/prompt"
)

// Zhipu sampling parameters. Low temperature keeps field extraction stable;
// the token budget leaves room for long specification objects.
const (
	zhipuTemperature = 0.3
	zhipuMaxTokens   = 4000
)

// ZhipuConfig holds the connection settings for the Zhipu AI backend
type ZhipuConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Zhipu is the primary enrichment backend. It supports grounding responses
// in web search results and prompts in English regardless of the output
// language.
type Zhipu struct {
	completer chatCompleter
	engine    *prompt.Engine
	parser    *Parser
	model     string
	logger    logging.Logger
	retryCfg  utils.RetryConfig
}

// NewZhipu creates the Zhipu provider. The API key is required; an empty key
// produces a provider that reports itself unconfigured and fails every call.
func NewZhipu(cfg ZhipuConfig, engine *prompt.Engine, parser *Parser, logger logging.Logger) *Zhipu {
	z := &Zhipu{
		engine:   engine,
		parser:   parser,
		model:    cfg.Model,
		logger:   logger.WithFields(logging.Field{Key: "provider", Value: NameZhipu}),
		retryCfg: utils.DefaultRetryConfig(),
	}
	if cfg.APIKey != "" {
		z.completer = newOpenAICompleter(NameZhipu, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	}
	return z
}

// Name implements Provider
func (z *Zhipu) Name() string { return NameZhipu }

// Model implements Provider
func (z *Zhipu) Model() string { return z.model }

// IsConfigured implements Provider
func (z *Zhipu) IsConfigured() bool { return z.completer != nil }

// SupportsWebSearch implements Provider
func (z *Zhipu) SupportsWebSearch() bool { return true }

// Enrich implements Provider
func (z *Zhipu) Enrich(ctx context.Context, product models.ProductInput, options models.EnrichmentOptions) (*Enrichment, error) {
	if z.completer == nil {
		return nil, apperrors.ConfigError("zhipuai provider is not configured")
	}

	start := time.Now()

	data := prompt.Data{
		LanguageName:   prompt.LanguageName(options.Language),
		Fields:         options.Fields,
		MaxFeatures:    options.MaxFeatures,
		MaxKeywords:    options.MaxKeywords,
		ProductContext: product.PromptContext(),
	}
	system, err := z.engine.Render(prompt.ZhipuSystem, data)
	if err != nil {
		return nil, apperrors.InternalError("render system prompt", err)
	}
	user, err := z.engine.Render(prompt.ZhipuUser, data)
	if err != nil {
		return nil, apperrors.InternalError("render user prompt", err)
	}

	z.logger.Debug("sending enrichment request",
		logging.Field{Key: "product_name", Value: product.Name},
		logging.Field{Key: "web_search", Value: options.IncludeWebSearch},
	)

	resp, err := completeWithRetry(ctx, z.completer, z.retryCfg, chatRequest{
		System:      system,
		User:        user,
		Temperature: zhipuTemperature,
		MaxTokens:   zhipuMaxTokens,
		WebSearch:   options.IncludeWebSearch,
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		z.logger.Error("enrichment request failed", err,
			logging.Field{Key: "product_name", Value: product.Name},
			logging.Field{Key: "processing_time_ms", Value: elapsed},
		)
		return nil, apperrors.ProviderAPIError(NameZhipu, product.Name, err)
	}

	z.logger.Info("enrichment response received",
		logging.Field{Key: "product_name", Value: product.Name},
		logging.Field{Key: "tokens", Value: resp.TokensUsed},
		logging.Field{Key: "processing_time_ms", Value: elapsed},
	)

	return &Enrichment{
		Product:          z.parser.Parse(resp.Content, options),
		Sources:          []models.Source{},
		TokensUsed:       resp.TokensUsed,
		ProcessingTimeMS: elapsed,
	}, nil
}

// HealthCheck implements Provider
func (z *Zhipu) HealthCheck(ctx context.Context) error {
	if z.completer == nil {
		return apperrors.ConfigError("zhipuai provider is not configured")
	}
	return z.completer.Ping(ctx)
}
