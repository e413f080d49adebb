package decompose

import (
	"context"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Service turns a raw query into an ordered sequence of atomic sub-queries.
type Service struct {
	llm           Completer
	maxSubQueries int
	temperature   float32
	logger        *zap.Logger
}

// New creates a decomposition service.
func New(llm Completer, maxSubQueries int, temperature float32, logger *zap.Logger) *Service {
	return &Service{
		llm:           llm,
		maxSubQueries: maxSubQueries,
		temperature:   temperature,
		logger:        logger,
	}
}

// Decompose asks the model to split the query. A malformed reply degrades to
// the whole query as the single sub-query; only a failed model call is an
// error, and that error is fatal to the run.
func (s *Service) Decompose(ctx context.Context, q domain.Query) (domain.Decomposition, error) {
	resp, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Prompt:      decomposePrompt(q, s.maxSubQueries),
		Temperature: s.temperature,
	})
	if err != nil {
		return domain.Decomposition{}, domain.NewDecompositionError(q, err)
	}

	d := parseSubQueries(resp.Text, q, s.maxSubQueries)
	if d.Outcome == domain.OutcomeFallback {
		s.logger.Warn("Could not parse sub-queries, using the whole query",
			zap.String("reply", resp.Text),
		)
	} else {
		s.logger.Debug("Query decomposed",
			zap.Int("sub_queries", len(d.SubQueries)),
		)
	}
	return d, nil
}
