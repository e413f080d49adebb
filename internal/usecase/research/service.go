package research

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/metrics"
)

// Config carries the orchestration thresholds.
type Config struct {
	// AdvancedWordThreshold is the sub-query word count above which retrieval
	// starts at advanced depth.
	AdvancedWordThreshold int
	// AdvancedFanoutThreshold is the fan-out size above which every sub-query
	// starts at advanced depth.
	AdvancedFanoutThreshold int
	// ReviewEnabled turns on the single post-synthesis review round.
	ReviewEnabled bool
}

// Result is one served answer: the run state plus where it came from.
type Result struct {
	State domain.RunState
	// FromCheckpoint is set when the answer was served from the store without
	// touching any collaborator.
	FromCheckpoint bool
}

// Service drives a query through decompose, retrieve, synthesize and the
// optional review round. It owns all checkpoint reads and writes; collaborators
// never see the store.
type Service struct {
	decomposer  Decomposer
	retriever   Retriever
	synthesizer Synthesizer
	reviewer    Reviewer
	store       CheckpointStore
	cfg         Config
	group       singleflight.Group
	logger      *zap.Logger
}

// New creates the orchestrator. reviewer may be nil when the review round is
// disabled.
func New(
	decomposer Decomposer,
	retriever Retriever,
	synthesizer Synthesizer,
	reviewer Reviewer,
	store CheckpointStore,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		decomposer:  decomposer,
		retriever:   retriever,
		synthesizer: synthesizer,
		reviewer:    reviewer,
		store:       store,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run answers one query. Identical queries (after normalization) are served
// from the checkpoint store; concurrent submissions of the same query share a
// single in-flight execution. A caller whose context expires stops waiting
// without killing a shared execution for the callers still on it; the
// execution itself runs under the context of the caller that started it.
func (s *Service) Run(ctx context.Context, q domain.Query) (Result, error) {
	if q.Empty() {
		return Result{}, domain.ErrQueryEmpty
	}

	fingerprint := domain.Fingerprint(q)
	if cached, ok := s.store.Get(fingerprint); ok {
		s.logger.Info("Serving answer from checkpoint",
			zap.String("fingerprint", fingerprint),
		)
		return Result{State: cached, FromCheckpoint: true}, nil
	}

	ch := s.group.DoChan(fingerprint, func() (any, error) {
		return s.execute(ctx, q, fingerprint)
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		res, _ := r.Val.(Result)
		if r.Err != nil {
			return res, r.Err
		}
		if r.Shared {
			s.logger.Debug("Joined in-flight run",
				zap.String("fingerprint", fingerprint),
			)
		}
		return res, nil
	}
}

// execute is the run state machine. It commits to the store only a state that
// reached StatusComplete; a run abandoned by context expiry or failed by a
// fatal stage writes nothing.
func (s *Service) execute(ctx context.Context, q domain.Query, fingerprint string) (Result, error) {
	runStart := time.Now()
	state := domain.RunState{
		ID:          uuid.NewString(),
		Query:       q,
		Fingerprint: fingerprint,
		Status:      domain.StatusReceived,
	}
	logger := s.logger.With(
		zap.String("run_id", state.ID),
		zap.String("fingerprint", fingerprint),
	)
	logger.Info("Run started")

	state.Status = domain.StatusDecomposing
	stageStart := time.Now()
	d, err := s.decomposer.Decompose(ctx, q)
	metrics.StageDuration.WithLabelValues("decompose").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		return s.fail(state, runStart, logger, err)
	}
	if len(d.SubQueries) == 0 {
		d = domain.Single(q)
	}
	state.SubQueries = d.SubQueries
	state.Outcome = d.Outcome
	logger.Debug("Decomposition done",
		zap.Int("fanout", len(state.SubQueries)),
		zap.String("outcome", string(state.Outcome)),
	)

	state.Status = domain.StatusRetrieving
	stageStart = time.Now()
	contexts, err := s.retrieveAll(ctx, state.SubQueries, depthAuto, logger)
	metrics.StageDuration.WithLabelValues("retrieve").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		return s.fail(state, runStart, logger, err)
	}
	state.Contexts = contexts

	state.Status = domain.StatusSynthesizing
	stageStart = time.Now()
	answer, err := s.synthesizer.Synthesize(ctx, q, state.Contexts)
	metrics.StageDuration.WithLabelValues("synthesize").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		return s.fail(state, runStart, logger, err)
	}
	state.Answer = answer

	if s.cfg.ReviewEnabled && s.reviewer != nil {
		state.Status = domain.StatusReviewing
		stageStart = time.Now()
		err = s.reviewRound(ctx, &state, logger)
		metrics.StageDuration.WithLabelValues("review").Observe(time.Since(stageStart).Seconds())
		if err != nil {
			return s.fail(state, runStart, logger, err)
		}
	}

	// A caller that stopped waiting must never find its run committed later.
	if err := ctx.Err(); err != nil {
		return s.fail(state, runStart, logger, err)
	}

	state.Status = domain.StatusComplete
	s.store.Put(state)
	metrics.RunsTotal.WithLabelValues("complete").Inc()
	metrics.RunDuration.WithLabelValues("complete").Observe(time.Since(runStart).Seconds())
	logger.Info("Run complete",
		zap.Int("fanout", len(state.SubQueries)),
		zap.Int("answer_chars", len(state.Answer)),
		zap.Duration("duration", time.Since(runStart)),
	)
	return Result{State: state}, nil
}

// retrieveAll fans out one retrieval per sub-query into a fixed slot, so the
// recorded order is always the decomposition order no matter which search
// finishes first. Per-sub-query failures are absorbed inside retrieveOne; the
// only error that crosses the join barrier is context expiry.
func (s *Service) retrieveAll(
	ctx context.Context, subs []domain.SubQuery, force domain.SearchDepth, logger *zap.Logger,
) ([]domain.FilteredContext, error) {
	contexts := make([]domain.FilteredContext, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subs {
		i, sub := i, sub
		depth := force
		if depth == depthAuto {
			depth = initialDepth(sub, len(subs), s.cfg.AdvancedWordThreshold, s.cfg.AdvancedFanoutThreshold)
		}
		g.Go(func() error {
			contexts[i] = s.retrieveOne(gctx, sub, depth, logger)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contexts, nil
}

// retrieveOne runs one retrieval, absorbing failure into an empty context and
// escalating a fruitless basic search to advanced depth once.
func (s *Service) retrieveOne(
	ctx context.Context, sub domain.SubQuery, depth domain.SearchDepth, logger *zap.Logger,
) domain.FilteredContext {
	fc, err := s.retriever.Search(ctx, sub, depth)
	if err != nil {
		logger.Warn("Retrieval failed, continuing with empty context",
			zap.String("sub_query", string(sub)),
			zap.String("depth", string(depth)),
			zap.Error(err),
		)
		return domain.EmptyContext(sub)
	}
	if depth != domain.DepthBasic || fc.ThresholdMet {
		return fc
	}

	metrics.DepthEscalationsTotal.Inc()
	logger.Debug("Escalating to advanced depth",
		zap.String("sub_query", string(sub)),
	)
	adv, err := s.retriever.Search(ctx, sub, domain.DepthAdvanced)
	if err != nil {
		logger.Warn("Advanced retrieval failed, keeping basic outcome",
			zap.String("sub_query", string(sub)),
			zap.Error(err),
		)
		return fc
	}
	if adv.ThresholdMet || !adv.Empty() {
		return adv
	}
	return fc
}

// reviewRound asks for a verdict on the draft answer and, on an inaccurate
// verdict, re-retrieves every sub-query at advanced depth and re-synthesizes
// exactly once. A failed review call keeps the draft; it never fails the run.
func (s *Service) reviewRound(ctx context.Context, state *domain.RunState, logger *zap.Logger) error {
	verdict, err := s.reviewer.Review(ctx, state.Query, state.Answer, domain.CombinedContext(state.Contexts))
	if err != nil {
		logger.Warn("Review failed, keeping draft answer", zap.Error(err))
		return nil
	}
	state.Reviewed = true
	if verdict != domain.VerdictInaccurate {
		return nil
	}

	logger.Info("Draft judged inaccurate, re-retrieving at advanced depth")
	contexts, err := s.retrieveAll(ctx, state.SubQueries, domain.DepthAdvanced, logger)
	if err != nil {
		return err
	}
	state.Contexts = contexts

	answer, err := s.synthesizer.Synthesize(ctx, state.Query, state.Contexts)
	if err != nil {
		return err
	}
	state.Answer = answer
	return nil
}

func (s *Service) fail(
	state domain.RunState, runStart time.Time, logger *zap.Logger, err error,
) (Result, error) {
	logger.Error("Run failed",
		zap.String("stage", string(state.Status)),
		zap.Error(err),
	)
	state.Status = domain.StatusFailed
	metrics.RunsTotal.WithLabelValues("failed").Inc()
	metrics.RunDuration.WithLabelValues("failed").Observe(time.Since(runStart).Seconds())
	return Result{State: state}, err
}
