package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker"

	"product-enricher/internal/common/utils"
)

// chatRequest is a single chat completion exchange: one system message and
// one user message with the provider's sampling parameters.
type chatRequest struct {
	System      string
	User        string
	Temperature float64
	TopP        float64
	MaxTokens   int64
	WebSearch   bool
}

// chatResponse carries the assistant content and token accounting
type chatResponse struct {
	Content    string
	TokensUsed int
}

// chatCompleter abstracts the transport so provider logic can be tested
// against a scripted fake.
type chatCompleter interface {
	Complete(ctx context.Context, req chatRequest) (*chatResponse, error)
	Ping(ctx context.Context) error
}

// openaiCompleter is the production transport built on the OpenAI SDK. A
// circuit breaker sits in front of the API so a flapping backend fails fast
// instead of tying up batch workers.
type openaiCompleter struct {
	client  openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
}

func newOpenAICompleter(name, apiKey, baseURL, model string, timeout time.Duration) *openaiCompleter {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
		// Retries happen at the provider layer where they can be
		// filtered by error class; the SDK must not retry underneath.
		option.WithMaxRetries(0),
	)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &openaiCompleter{
		client:  client,
		model:   model,
		breaker: breaker,
	}
}

func (c *openaiCompleter) Complete(ctx context.Context, req chatRequest) (*chatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(req.MaxTokens),
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}

	var opts []option.RequestOption
	if req.WebSearch {
		// Zhipu's web_search tool is not part of the standard tool
		// schema, so it is injected into the request body directly.
		opts = append(opts, option.WithJSONSet("tools", []map[string]any{
			{
				"type": "web_search",
				"web_search": map[string]any{
					"enable":        true,
					"search_result": true,
				},
			},
		}))
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Chat.Completions.New(ctx, params, opts...)
	})
	if err != nil {
		return nil, err
	}

	resp := result.(*openai.ChatCompletion)
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	return &chatResponse{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

// Ping issues a minimal completion to verify reachability and credentials
func (c *openaiCompleter) Ping(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: c.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage("Hi"),
			},
			MaxTokens: openai.Int(10),
		})
	})
	return err
}

// completeWithRetry runs a completion with exponential backoff, retrying only
// transient transport failures.
func completeWithRetry(ctx context.Context, c chatCompleter, cfg utils.RetryConfig, req chatRequest) (*chatResponse, error) {
	cfg.RetryableErrors = isTransient

	var resp *chatResponse
	err := utils.RetryWithBackoff(ctx, cfg, func() error {
		r, err := c.Complete(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// isTransient classifies transport-level failures that are worth retrying.
// API-level errors (bad request, auth, quota) and an open circuit breaker are
// never transient: retrying them cannot succeed.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
