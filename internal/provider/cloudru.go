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

// Cloud.ru sampling parameters. GigaChat handles Russian product names better
// with a slightly higher temperature and nucleus sampling.
const (
	cloudruTemperature = 0.5
	cloudruMaxTokens   = 2500
	cloudruTopP        = 0.95
)

// CloudruConfig holds the connection settings for the Cloud.ru backend.
// The API key is optional; without it the provider stays unconfigured and
// routing falls through to Zhipu.
type CloudruConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Cloudru is the regional backend used for Russian-origin products. It
// prompts in Russian with explicit manufacturer versus trademark guidance and
// has no web search capability.
type Cloudru struct {
	completer chatCompleter
	engine    *prompt.Engine
	parser    *Parser
	model     string
	logger    logging.Logger
	retryCfg  utils.RetryConfig
}

// NewCloudru creates the Cloud.ru provider
func NewCloudru(cfg CloudruConfig, engine *prompt.Engine, parser *Parser, logger logging.Logger) *Cloudru {
	c := &Cloudru{
		engine:   engine,
		parser:   parser,
		model:    cfg.Model,
		logger:   logger.WithFields(logging.Field{Key: "provider", Value: NameCloudru}),
		retryCfg: utils.DefaultRetryConfig(),
	}
	if cfg.APIKey != "" {
		c.completer = newOpenAICompleter(NameCloudru, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	} else {
		logger.Warn("cloudru API key not configured, provider disabled")
	}
	return c
}

// Name implements Provider
func (c *Cloudru) Name() string { return NameCloudru }

// Model implements Provider
func (c *Cloudru) Model() string { return c.model }

// IsConfigured implements Provider
func (c *Cloudru) IsConfigured() bool { return c.completer != nil }

// SupportsWebSearch implements Provider
func (c *Cloudru) SupportsWebSearch() bool { return false }

// Enrich implements Provider
func (c *Cloudru) Enrich(ctx context.Context, product models.ProductInput, options models.EnrichmentOptions) (*Enrichment, error) {
	if c.completer == nil {
		return nil, apperrors.ConfigError("cloudru provider is not configured")
	}

	start := time.Now()

	data := prompt.Data{
		Fields:         options.Fields,
		MaxFeatures:    options.MaxFeatures,
		MaxKeywords:    options.MaxKeywords,
		ProductContext: product.PromptContext(),
	}
	system, err := c.engine.Render(prompt.CloudruSystem, data)
	if err != nil {
		return nil, apperrors.InternalError("render system prompt", err)
	}
	user, err := c.engine.Render(prompt.CloudruUser, data)
	if err != nil {
		return nil, apperrors.InternalError("render user prompt", err)
	}

	c.logger.Debug("sending enrichment request",
		logging.Field{Key: "product_name", Value: product.Name},
	)

	resp, err := completeWithRetry(ctx, c.completer, c.retryCfg, chatRequest{
		System:      system,
		User:        user,
		Temperature: cloudruTemperature,
		MaxTokens:   cloudruMaxTokens,
		TopP:        cloudruTopP,
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.logger.Error("enrichment request failed", err,
			logging.Field{Key: "product_name", Value: product.Name},
			logging.Field{Key: "processing_time_ms", Value: elapsed},
		)
		return nil, apperrors.ProviderAPIError(NameCloudru, product.Name, err)
	}

	c.logger.Info("enrichment response received",
		logging.Field{Key: "product_name", Value: product.Name},
		logging.Field{Key: "tokens", Value: resp.TokensUsed},
		logging.Field{Key: "processing_time_ms", Value: elapsed},
	)

	return &Enrichment{
		Product:          c.parser.Parse(resp.Content, options),
		Sources:          []models.Source{},
		TokensUsed:       resp.TokensUsed,
		ProcessingTimeMS: elapsed,
	}, nil
}

// HealthCheck implements Provider
func (c *Cloudru) HealthCheck(ctx context.Context) error {
	if c.completer == nil {
		return apperrors.ConfigError("cloudru provider is not configured")
	}
	return c.completer.Ping(ctx)
}
