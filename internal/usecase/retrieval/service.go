package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/metrics"
)

// Config holds the retrieval stage knobs.
type Config struct {
	Backoff BackoffPolicy
	// MaxResults requested from the provider per call.
	MaxResults int
	// MaxSubQueryLength rejects oversized sub-queries before calling out.
	MaxSubQueryLength int
	// MinScore is the relevance threshold; MaxKept caps surviving results.
	MinScore float64
	MaxKept  int
}

// Service is the search client stage: one provider call per sub-query with
// retry on transient failure, then relevance filtering into a FilteredContext.
type Service struct {
	provider Provider
	name     string
	cfg      Config
	logger   *zap.Logger
}

// New creates a retrieval service. name labels the provider in metrics and logs.
func New(provider Provider, name string, cfg Config, logger *zap.Logger) *Service {
	return &Service{provider: provider, name: name, cfg: cfg, logger: logger}
}

// Search retrieves and filters web context for one sub-query at the given
// depth. A provider that legitimately finds nothing yields an empty context,
// not an error; exhausted retries and permanent refusals come back as a
// *domain.RetrievalError for the orchestrator to absorb.
func (s *Service) Search(
	ctx context.Context, sub domain.SubQuery, depth domain.SearchDepth,
) (domain.FilteredContext, error) {
	if s.cfg.MaxSubQueryLength > 0 && len(sub) > s.cfg.MaxSubQueryLength {
		return domain.FilteredContext{}, domain.NewRetrievalError(sub, 0, domain.ErrQueryTooLong)
	}

	results, attempts, err := s.searchWithRetry(ctx, sub, depth)
	if err != nil {
		return domain.FilteredContext{}, domain.NewRetrievalError(sub, attempts, err)
	}
	if len(results) == 0 {
		s.logger.Debug("Search returned no documents",
			zap.String("provider", s.name),
			zap.String("sub_query", string(sub)),
			zap.String("depth", string(depth)),
		)
		return domain.EmptyContext(sub), nil
	}

	kept, thresholdMet := filterByRelevance(results, s.cfg.MinScore, s.cfg.MaxKept)
	return domain.FilteredContext{
		SubQuery:     sub,
		Results:      kept,
		Rendered:     renderContext(kept),
		ThresholdMet: thresholdMet,
	}, nil
}

func (s *Service) searchWithRetry(
	ctx context.Context, sub domain.SubQuery, depth domain.SearchDepth,
) ([]domain.SearchResult, int, error) {
	opts := domain.SearchOptions{Depth: depth, MaxResults: s.cfg.MaxResults}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Backoff.MaxAttempts; attempt++ {
		if attempt > 1 {
			metrics.SearchRetriesTotal.Inc()
		}

		results, err := s.provider.Search(ctx, string(sub), opts)
		if err == nil {
			metrics.SearchRequestsTotal.WithLabelValues(s.name, string(depth), "ok").Inc()
			return results, attempt, nil
		}
		metrics.SearchRequestsTotal.WithLabelValues(s.name, string(depth), "error").Inc()
		lastErr = err

		if !domain.IsTransientSearch(err) {
			s.logger.Warn("Search rejected, not retrying",
				zap.String("provider", s.name),
				zap.String("sub_query", string(sub)),
				zap.Error(err),
			)
			return nil, attempt, err
		}
		if attempt == s.cfg.Backoff.MaxAttempts {
			break
		}

		delay := s.cfg.Backoff.Delay(attempt)
		s.logger.Debug("Search attempt failed, backing off",
			zap.String("provider", s.name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		}
	}

	s.logger.Warn("Search attempts exhausted",
		zap.String("provider", s.name),
		zap.String("sub_query", string(sub)),
		zap.Int("attempts", s.cfg.Backoff.MaxAttempts),
		zap.Error(lastErr),
	)
	return nil, s.cfg.Backoff.MaxAttempts, lastErr
}
