package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"history-tutor/internal/config"
)

// Generator is the black-box text-completion contract the pipeline depends
// on. Tests substitute a mock.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Client calls an OpenAI-compatible chat endpoint through langchaingo, with
// a request-rate cap on outbound calls.
type Client struct {
	llm         *openai.LLM
	temperature float64
	limiter     *rate.Limiter
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing llm client: %w", err)
	}

	// rate_per_minute 0 means unlimited
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60.0)
	}

	return &Client{
		llm:         llm,
		temperature: cfg.Temperature,
		limiter:     rate.NewLimiter(limit, 1),
	}, nil
}

// Generate sends one system+user exchange and returns the completion text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	res, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	return res.Choices[0].Content, nil
}

// GenerateMultimodal sends arbitrary content parts as a single user message.
// Used by the image analysis path.
func (c *Client) GenerateMultimodal(ctx context.Context, parts []llms.ContentPart) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}
	res, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	return res.Choices[0].Content, nil
}
