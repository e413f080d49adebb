package review

import (
	"context"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Service asks the model to judge a draft answer against the context it was
// synthesized from.
type Service struct {
	llm         Completer
	temperature float32
	logger      *zap.Logger
}

// New creates a review service.
func New(llm Completer, temperature float32, logger *zap.Logger) *Service {
	return &Service{
		llm:         llm,
		temperature: temperature,
		logger:      logger,
	}
}

// Review returns the model's verdict on the draft answer. Callers absorb a
// failed review call: a verdict can improve an answer but never fail a run.
func (s *Service) Review(
	ctx context.Context, q domain.Query, answer, renderedContext string,
) (domain.Verdict, error) {
	resp, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Prompt:      critiquePrompt(q, answer, renderedContext),
		Temperature: s.temperature,
	})
	if err != nil {
		return domain.VerdictAccurate, err
	}

	verdict := parseVerdict(resp.Text)
	s.logger.Debug("Draft answer reviewed", zap.String("verdict", string(verdict)))
	return verdict, nil
}
