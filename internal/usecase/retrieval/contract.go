package retrieval

import (
	"context"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// Provider is the external web search contract. Implementations classify
// failures into the domain sentinels so the retry loop can tell transient
// from permanent.
type Provider interface {
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
