package research

import (
	"context"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Decomposer splits a query into an ordered sequence of atomic sub-queries.
type Decomposer interface {
	Decompose(ctx context.Context, q domain.Query) (domain.Decomposition, error)
}

// Retriever gathers filtered web context for one sub-query at a given depth.
type Retriever interface {
	Search(ctx context.Context, sub domain.SubQuery, depth domain.SearchDepth) (domain.FilteredContext, error)
}

// Synthesizer composes the final answer from the gathered contexts.
type Synthesizer interface {
	Synthesize(ctx context.Context, q domain.Query, contexts []domain.FilteredContext) (string, error)
}

// Reviewer judges a draft answer against the context it was built from.
type Reviewer interface {
	Review(ctx context.Context, q domain.Query, answer, renderedContext string) (domain.Verdict, error)
}

// CheckpointStore memoizes completed runs by query fingerprint.
type CheckpointStore interface {
	Get(fingerprint string) (domain.RunState, bool)
	Put(state domain.RunState)
}
