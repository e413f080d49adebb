package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

// filterByRelevance keeps results scoring at least minScore, best first,
// capped at maxKept. When every result falls below the threshold the single
// best one is kept anyway, so a non-empty input never filters to nothing.
// thresholdMet reports whether any result genuinely passed.
func filterByRelevance(
	results []domain.SearchResult, minScore float64, maxKept int,
) (kept []domain.SearchResult, thresholdMet bool) {
	if len(results) == 0 {
		return nil, false
	}

	sorted := make([]domain.SearchResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	for _, r := range sorted {
		if r.Score < minScore {
			break
		}
		kept = append(kept, r)
	}

	if len(kept) == 0 {
		// Never starve synthesis of grounding text entirely.
		return sorted[:1], false
	}

	if maxKept > 0 && len(kept) > maxKept {
		kept = kept[:maxKept]
	}
	return kept, true
}

// renderContext builds the model-facing text block: one delimited section per
// surviving result, already in descending score order.
func renderContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return domain.NoContextFound
	}

	sections := make([]string, len(results))
	for i, r := range results {
		sections[i] = fmt.Sprintf("%s (%s):\n%s", r.Title, r.Source, r.Content)
	}
	return strings.Join(sections, "\n\n")
}
