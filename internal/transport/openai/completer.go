package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// Config holds the completion provider settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Logger    *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}
}

// Complete implements domain.Completer via the chat completions endpoint.
func (c *Completer) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return domain.Completion{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrModelRejected)
	}

	c.logger.Debug("Chat completion finished",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return domain.Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// parseAPIError maps an API failure into the model error taxonomy: rate
// limits and server errors are transient, other rejections permanent.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, classifyStatus(apiErr.HTTPStatusCode))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %w",
			reqErr.HTTPStatusCode, classifyStatus(reqErr.HTTPStatusCode))
	}

	return fmt.Errorf("completion request failed: %w", domain.ErrModelUnavailable)
}

func classifyStatus(code int) error {
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		return domain.ErrModelUnavailable
	}
	return domain.ErrModelRejected
}
