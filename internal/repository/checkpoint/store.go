package checkpoint

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Store memoizes completed RunStates by fingerprint for the process lifetime.
// Append-only: the first state committed for a fingerprint wins, nothing is
// evicted, nothing survives a restart. The orchestrator is the only owner.
type Store struct {
	mu     sync.RWMutex
	states map[string]domain.RunState

	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an empty checkpoint store.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Store {
	return &Store{
		states:     make(map[string]domain.RunState),
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns the completed RunState for a fingerprint, if any.
func (s *Store) Get(fingerprint string) (domain.RunState, bool) {
	s.mu.RLock()
	state, ok := s.states[fingerprint]
	s.mu.RUnlock()

	if ok {
		s.incCache("hit")
	} else {
		s.incCache("miss")
	}
	return state, ok
}

// Put commits a completed RunState under its fingerprint. Non-complete states
// are dropped: partial runs must never become visible to later lookups.
// A fingerprint already present keeps its first state.
func (s *Store) Put(state domain.RunState) {
	if state.Status != domain.StatusComplete {
		s.logger.Warn("Refusing to checkpoint a non-complete run",
			zap.String("run_id", state.ID),
			zap.String("status", state.Status.String()),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.states[state.Fingerprint]; exists {
		s.logger.Debug("Checkpoint already present, keeping first",
			zap.String("fingerprint", state.Fingerprint),
		)
		return
	}
	s.states[state.Fingerprint] = state
}

// Len returns the number of committed checkpoints.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (s *Store) incCache(result string) {
	if s.cacheTotal != nil {
		s.cacheTotal.WithLabelValues(result).Inc()
	}
}
