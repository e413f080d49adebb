package decompose

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*")

// parseSubQueries resolves a raw model reply into a Decomposition. Pure: any
// shape it cannot make sense of falls back to the whole query as the single
// sub-query, never an error. Capped at maxSubQueries.
func parseSubQueries(raw string, original domain.Query, maxSubQueries int) domain.Decomposition {
	cleaned := codeFence.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.Trim(cleaned, "`")

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end <= start {
		return domain.Single(original)
	}

	var items []string
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return domain.Single(original)
	}

	subs := make([]domain.SubQuery, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			subs = append(subs, domain.SubQuery(item))
		}
	}
	if len(subs) == 0 {
		return domain.Single(original)
	}
	if maxSubQueries > 0 && len(subs) > maxSubQueries {
		subs = subs[:maxSubQueries]
	}

	return domain.Decomposition{SubQueries: subs, Outcome: domain.OutcomeParsed}
}
