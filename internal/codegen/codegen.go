package codegen

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"acg/internal/errs"
)

const (
	DefaultModel       = "gpt-4"
	DefaultTemperature = 0.3
)

// Config carries everything the client needs. Credentials are resolved by
// the caller; the client never reads the environment itself.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

type Client struct {
	api         openai.Client
	model       string
	temperature float64
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.Wrapf(errs.ErrConfiguration, "OPENAI_API_KEY not set")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		api:         openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Client) Model() string { return c.model }

// Generate sends prompt as a single user message and returns the reply text
// untouched. Failures are never retried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return "", errs.Wrap(errs.ErrService, fmt.Errorf("authentication rejected (check OPENAI_API_KEY): %w", err))
		}
		return "", errs.Wrap(errs.ErrService, fmt.Errorf("chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", errs.Wrapf(errs.ErrService, "no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errs.Wrapf(errs.ErrService, "empty message content")
	}

	log.Debug("Generated", "model", c.model, "bytes", len(content), "finish", resp.Choices[0].FinishReason)

	return content, nil
}
