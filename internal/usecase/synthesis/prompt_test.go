package synthesis

import (
	"strings"
	"testing"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

func contextFor(sub domain.SubQuery, rendered string) domain.FilteredContext {
	return domain.FilteredContext{
		SubQuery: sub,
		Results:  []domain.SearchResult{{Title: "t", Content: "c", Score: 0.9}},
		Rendered: rendered,
	}
}

func TestAnswerPrompt_Shape(t *testing.T) {
	got := answerPrompt("Why is the sky blue?", "Rayleigh scattering favors short wavelengths.")

	if !strings.HasPrefix(got, "Answer the prompt based on the context.\nContext:\n") {
		t.Errorf("unexpected prompt head: %q", got)
	}
	if !strings.Contains(got, "Rayleigh scattering") {
		t.Error("prompt missing context body")
	}
	if !strings.HasSuffix(got, "Prompt: Why is the sky blue?") {
		t.Errorf("unexpected prompt tail: %q", got)
	}
}
