package synthesis

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

func TestSynthesize_ReturnsTrimmedAnswer(t *testing.T) {
	llm := &stubCompleter{reply: "  The sky is blue because of Rayleigh scattering.\n"}
	svc := New(llm, 0.3, zap.NewNop())

	contexts := []domain.FilteredContext{
		contextFor("Why is the sky blue?", "Shorter wavelengths scatter more."),
	}
	answer, err := svc.Synthesize(context.Background(), "Why is the sky blue?", contexts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "The sky is blue because of Rayleigh scattering." {
		t.Errorf("unexpected answer: %q", answer)
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[0], "Shorter wavelengths scatter more.") {
		t.Error("prompt should embed the retrieved context")
	}
	if !strings.Contains(llm.prompts[0], "Prompt: Why is the sky blue?") {
		t.Error("prompt should embed the original query")
	}
}

func TestSynthesize_ModelFailureIsFatal(t *testing.T) {
	llm := &stubCompleter{err: domain.ErrModelUnavailable}
	svc := New(llm, 0.3, zap.NewNop())

	_, err := svc.Synthesize(context.Background(), "anything", []domain.FilteredContext{
		domain.EmptyContext("anything"),
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var se *domain.SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected *domain.SynthesisError, got %T", err)
	}
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Error("expected cause sentinel reachable")
	}
}

func TestSynthesize_AllEmptyContextsStillAnswer(t *testing.T) {
	llm := &stubCompleter{reply: "Answering from general knowledge."}
	svc := New(llm, 0.3, zap.NewNop())

	_, err := svc.Synthesize(context.Background(), "obscure question", []domain.FilteredContext{
		domain.EmptyContext("obscure question"),
	})
	if err != nil {
		t.Fatalf("empty contexts must not fail synthesis: %v", err)
	}
	if !strings.Contains(llm.prompts[0], domain.NoContextFound) {
		t.Error("prompt should carry the no-context marker")
	}
}
