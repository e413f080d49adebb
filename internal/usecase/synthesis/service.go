package synthesis

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Service composes the final answer from the original query and the
// per-sub-query contexts gathered by retrieval.
type Service struct {
	llm         Completer
	temperature float32
	logger      *zap.Logger
}

// New creates a synthesis service.
func New(llm Completer, temperature float32, logger *zap.Logger) *Service {
	return &Service{
		llm:         llm,
		temperature: temperature,
		logger:      logger,
	}
}

// Synthesize asks the model to answer the query from the combined contexts.
// Contexts must arrive in decomposition order; empty ones keep their slot so
// the model sees which sub-questions came back with nothing. A failed model
// call is fatal to the run.
func (s *Service) Synthesize(
	ctx context.Context, q domain.Query, contexts []domain.FilteredContext,
) (string, error) {
	resp, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Prompt:      answerPrompt(q, domain.CombinedContext(contexts)),
		Temperature: s.temperature,
	})
	if err != nil {
		return "", domain.NewSynthesisError(q, err)
	}

	answer := strings.TrimSpace(resp.Text)
	s.logger.Debug("Answer synthesized",
		zap.Int("context_blocks", len(contexts)),
		zap.Int("answer_chars", len(answer)),
	)
	return answer, nil
}
