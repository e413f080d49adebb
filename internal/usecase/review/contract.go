package review

import (
	"context"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Completer is the language model contract for answer review.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error)
}
