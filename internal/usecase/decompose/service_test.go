package decompose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

type stubCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(
	_ context.Context, req domain.CompletionRequest,
) (domain.Completion, error) {
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return domain.Completion{}, s.err
	}
	return domain.Completion{Text: s.reply}, nil
}

func TestDecompose_ParsedReply(t *testing.T) {
	llm := &stubCompleter{reply: `["What is LangGraph?", "Who uses LangGraph?"]`}
	svc := New(llm, 15, 0.3, zap.NewNop())

	d, err := svc.Decompose(context.Background(), "What is LangGraph and who uses it?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Outcome != domain.OutcomeParsed {
		t.Errorf("expected parsed outcome, got %s", d.Outcome)
	}
	if len(d.SubQueries) != 2 {
		t.Errorf("expected 2 sub-queries, got %d", len(d.SubQueries))
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[0], "What is LangGraph and who uses it?") {
		t.Error("prompt should embed the original query")
	}
	if !strings.Contains(llm.prompts[0], "Only split the query") {
		t.Error("prompt should carry the splitting instruction")
	}
}

func TestDecompose_MalformedReplyFallsBack(t *testing.T) {
	llm := &stubCompleter{reply: "I cannot answer that."}
	svc := New(llm, 15, 0.3, zap.NewNop())

	d, err := svc.Decompose(context.Background(), "Some compound question?")
	if err != nil {
		t.Fatalf("fallback must not be an error, got %v", err)
	}
	if d.Outcome != domain.OutcomeFallback {
		t.Errorf("expected fallback outcome, got %s", d.Outcome)
	}
	if len(d.SubQueries) != 1 || d.SubQueries[0] != "Some compound question?" {
		t.Errorf("expected whole query carried, got %v", d.SubQueries)
	}
}

func TestDecompose_ModelFailureIsFatal(t *testing.T) {
	llm := &stubCompleter{err: domain.ErrModelUnavailable}
	svc := New(llm, 15, 0.3, zap.NewNop())

	_, err := svc.Decompose(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}

	var de *domain.DecompositionError
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.DecompositionError, got %T", err)
	}
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Error("expected cause sentinel reachable")
	}
}
