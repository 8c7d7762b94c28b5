package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"profile-backend/internal/llm"
	"profile-backend/internal/profile"
	"profile-backend/internal/shared/telemetry"
)

const (
	DefaultModel = "gpt-4o-mini"
	temperature  = float32(0.1)
)

// chatAPI is the part of *goopenai.Client the extractor needs.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Options configures the OpenAI-backed extraction client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api   chatAPI
	model string
	ready bool
}

// NewClient constructs a client. A missing API key is not an error here;
// ExtractProfile reports llm.ErrMissingCredential instead.
func NewClient(opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg := goopenai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:   goopenai.NewClientWithConfig(cfg),
		model: model,
		ready: strings.TrimSpace(opts.APIKey) != "",
	}
}

// ExtractProfile sends one chat completion request and decodes the answer.
// There are no internal retries.
func (c *Client) ExtractProfile(ctx context.Context, resumeText string) (profile.ExtractionResult, error) {
	if c == nil || !c.ready {
		return profile.ExtractionResult{}, llm.ErrMissingCredential
	}

	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt()},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.ExtractPrompt(resumeText)},
		},
		Temperature: temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return profile.ExtractionResult{}, mapError(err)
	}
	logUsage(c.model, resp.Usage)

	if len(resp.Choices) == 0 {
		return profile.ExtractionResult{}, llm.ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return profile.ExtractionResult{}, llm.ErrEmptyResponse
	}
	return llm.DecodeExtraction([]byte(content))
}

func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.HTTPStatusCode)
		}
		return &llm.ServiceError{Status: apiErr.HTTPStatusCode, Message: msg}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.ServiceError{Status: reqErr.HTTPStatusCode, Message: http.StatusText(reqErr.HTTPStatusCode)}
	}
	return fmt.Errorf("openai request: %w", err)
}

func logUsage(model string, usage goopenai.Usage) {
	telemetry.Info("llm.response", map[string]any{
		"model":             model,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
}

var _ llm.Client = (*Client)(nil)
