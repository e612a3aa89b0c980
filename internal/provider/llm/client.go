// Package llm talks to an OpenAI-compatible chat completion API for word generation, interval advice,
// translation self-checks and category proposals.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/srs"
)

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second

	temperature = 0.7
	maxTokens   = 1000
)

var errEmptyResponse = errors.New("empty chat response")

type (
	Config struct {
		BaseURL    string
		APIKey     string
		Model      string
		MaxRetries int
		Timeout    time.Duration
	}

	Client struct {
		client     *openai.Client
		model      string
		maxRetries int
		timeout    time.Duration
		log        *slog.Logger
	}
)

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		log:        log,
	}
}

// WithModel returns a client using model, or c itself when model is empty.
func (c *Client) WithModel(model string) *Client {
	if model == "" || model == c.model {
		return c
	}
	res := *c
	res.model = model
	return &res
}

func (c *Client) Generate(ctx context.Context, req generator.Request) ([]generator.Pair, error) {
	reply, err := c.complete(ctx, buildGeneratePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate words: %w", err)
	}
	pairs, err := generator.ParseResponse(reply)
	if err != nil {
		c.log.DebugContext(ctx, "unparsable generation reply", "reply", reply)
		return nil, err
	}
	return pairs, nil
}

func (c *Client) RecommendInterval(ctx context.Context, req srs.AdviceRequest) (string, error) {
	reply, err := c.complete(ctx, buildAdvicePrompt(req))
	if err != nil {
		return "", fmt.Errorf("recommend interval: %w", err)
	}
	return reply, nil
}

func (c *Client) CheckTranslations(ctx context.Context, pairs []generator.Pair) ([]generator.Verdict, error) {
	prompt, err := buildSelfCheckPrompt(pairs)
	if err != nil {
		return nil, err
	}
	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("check translations: %w", err)
	}
	return generator.ParseVerdicts(reply)
}

// ProposeCategory returns the proposed name stripped of quotes and trailing punctuation.
func (c *Client) ProposeCategory(ctx context.Context, req category.MintRequest) (string, error) {
	reply, err := c.complete(ctx, buildCategoryPrompt(req))
	if err != nil {
		return "", fmt.Errorf("propose category: %w", err)
	}
	return strings.Trim(strings.TrimSpace(reply), `"'.`), nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var result string
	err := c.doWithRetry(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errEmptyResponse
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("complete chat: %w", err)
	}
	return result, nil
}

// doWithRetry retries fn with exponential backoff starting at one second.
func (c *Client) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := range c.maxRetries {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == c.maxRetries-1 {
			break
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second //nolint:mnd // exponential backoff
		c.log.DebugContext(ctx, "chat request failed, retrying", "attempt", attempt+1, "wait_time", wait, "error", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// retryable reports whether err may go away on its own: rate limits, server errors and transport failures.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 //nolint:mnd // http statuses
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500 //nolint:mnd // http statuses
	}
	return !errors.Is(err, errEmptyResponse) && !errors.Is(err, context.Canceled)
}
