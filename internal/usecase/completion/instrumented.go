package completion

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/metrics"
)

// Instrumented wraps a Completer with request metrics, token accounting and
// logging. Every pipeline stage that talks to the model goes through one
// shared instance so usage totals cover the whole process.
type Instrumented struct {
	inner    domain.Completer
	provider string
	model    string
	logger   *zap.Logger

	promptTokens     atomic.Int64
	completionTokens atomic.Int64
}

// NewInstrumented wraps a completer with observability.
func NewInstrumented(
	inner domain.Completer, provider, model string, logger *zap.Logger,
) *Instrumented {
	return &Instrumented{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// Complete delegates to the inner completer and records outcome, duration and
// token usage.
func (c *Instrumented) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.Completion, error) {
	start := time.Now()

	resp, err := c.inner.Complete(ctx, req)

	duration := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, status).Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())

	if err != nil {
		c.logger.Error("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}

	if resp.PromptTokens > 0 || resp.CompletionTokens > 0 {
		c.promptTokens.Add(int64(resp.PromptTokens))
		c.completionTokens.Add(int64(resp.CompletionTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "prompt").
			Add(float64(resp.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "completion").
			Add(float64(resp.CompletionTokens))
	}

	c.logger.Debug("Completion request finished",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens),
	)

	return resp, nil
}

// Usage returns process-lifetime token totals recorded by this completer.
func (c *Instrumented) Usage() (prompt, completion int64) {
	return c.promptTokens.Load(), c.completionTokens.Load()
}
