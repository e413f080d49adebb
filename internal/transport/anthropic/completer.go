package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Completer is a chat completion provider using the Anthropic messages API.
type Completer struct {
	client    anthropic.Client
	model     anthropic.Model
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

// NewCompleter creates an Anthropic completion provider. Requests are single
// attempt; retry policy belongs to the callers that want one.
func NewCompleter(cfg *Config) *Completer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Completer{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}
}

// Complete implements domain.Completer via the messages endpoint.
func (c *Completer) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return domain.Completion{}, parseAPIError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrModelRejected)
	}

	c.logger.Debug("Chat completion finished",
		zap.String("model", string(c.model)),
		zap.Duration("duration", time.Since(start)),
		zap.String("stop_reason", string(resp.StopReason)),
	)

	return domain.Completion{
		Text:             text.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// parseAPIError maps an API failure into the model error taxonomy: rate
// limits and server errors are transient, other rejections permanent.
func parseAPIError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %w",
			apiErr.StatusCode, classifyStatus(apiErr.StatusCode))
	}

	return fmt.Errorf("completion request failed: %w", domain.ErrModelUnavailable)
}

func classifyStatus(code int) error {
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		return domain.ErrModelUnavailable
	}
	return domain.ErrModelRejected
}
