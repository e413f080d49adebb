package checkpoint

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

func completeState(q domain.Query, answer string) domain.RunState {
	return domain.RunState{
		ID:          "run-1",
		Query:       q,
		Fingerprint: domain.Fingerprint(q),
		SubQueries:  []domain.SubQuery{domain.SubQuery(q)},
		Contexts:    []domain.FilteredContext{domain.EmptyContext(domain.SubQuery(q))},
		Answer:      answer,
		Status:      domain.StatusComplete,
	}
}

func TestStore_MissThenHit(t *testing.T) {
	s := New(nil, zap.NewNop())
	state := completeState("what is langgraph?", "a graph framework")

	if _, ok := s.Get(state.Fingerprint); ok {
		t.Fatal("expected miss on empty store")
	}

	s.Put(state)

	got, ok := s.Get(state.Fingerprint)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got.Answer != "a graph framework" {
		t.Errorf("expected stored answer, got %q", got.Answer)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 checkpoint, got %d", s.Len())
	}
}

func TestStore_FirstWriteWins(t *testing.T) {
	s := New(nil, zap.NewNop())
	first := completeState("q", "first answer")
	second := completeState("q", "second answer")

	s.Put(first)
	s.Put(second)

	got, ok := s.Get(first.Fingerprint)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Answer != "first answer" {
		t.Errorf("expected first answer kept, got %q", got.Answer)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 checkpoint, got %d", s.Len())
	}
}

func TestStore_DropsNonComplete(t *testing.T) {
	s := New(nil, zap.NewNop())

	partial := completeState("q", "")
	partial.Status = domain.StatusRetrieving
	s.Put(partial)

	if s.Len() != 0 {
		t.Errorf("expected partial state dropped, store has %d entries", s.Len())
	}

	failed := completeState("q", "")
	failed.Status = domain.StatusFailed
	s.Put(failed)

	if s.Len() != 0 {
		t.Errorf("expected failed state dropped, store has %d entries", s.Len())
	}
}

func TestStore_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_checkpoint_total"},
		[]string{"result"},
	)
	s := New(counter, zap.NewNop())
	state := completeState("q", "a")

	s.Get(state.Fingerprint) // miss
	s.Put(state)
	s.Get(state.Fingerprint) // hit
	s.Get(state.Fingerprint) // hit

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("expected 1 miss, got %f", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 2 {
		t.Errorf("expected 2 hits, got %f", v)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New(nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			q := domain.Query(fmt.Sprintf("query %d", n%4))
			state := completeState(q, "answer")
			state.Fingerprint = domain.Fingerprint(q)
			s.Put(state)
			s.Get(state.Fingerprint)
		}(i)
	}
	wg.Wait()

	if s.Len() != 4 {
		t.Errorf("expected 4 distinct checkpoints, got %d", s.Len())
	}
}
