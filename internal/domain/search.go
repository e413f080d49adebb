package domain

import "strings"

// SearchDepth selects how thoroughly the search provider crawls for a sub-query.
type SearchDepth string

const (
	// DepthBasic is the cheap single-pass search tier.
	DepthBasic SearchDepth = "basic"
	// DepthAdvanced is the deeper, slower search tier.
	DepthAdvanced SearchDepth = "advanced"
)

// SearchOptions carries per-call search parameters to a provider.
type SearchOptions struct {
	Depth      SearchDepth
	MaxResults int
}

// SearchResult is one retrieved document. Immutable after creation.
type SearchResult struct {
	// Source identifies where the document came from (URL or equivalent).
	Source  string
	Title   string
	Content string
	// Score is the provider relevance score; higher means more relevant.
	Score float64
	// Depth records the search tier that produced this result.
	Depth SearchDepth
}

// NoContextFound is the rendered text of a context with no surviving results.
const NoContextFound = "No relevant information found."

// FilteredContext is the per-SubQuery retrieval outcome after relevance
// filtering: the surviving results in descending score order plus the rendered
// text block fed to the model.
type FilteredContext struct {
	SubQuery SubQuery
	Results  []SearchResult
	Rendered string
	// ThresholdMet reports whether at least one result met the minimum
	// relevance score. False on a keep-top-one rescue or an empty context;
	// drives basic-to-advanced depth escalation.
	ThresholdMet bool
}

// Empty reports whether no results survived retrieval for this sub-query.
func (c FilteredContext) Empty() bool {
	return len(c.Results) == 0
}

// EmptyContext builds the context recorded for a sub-query whose retrieval
// failed or returned nothing.
func EmptyContext(sub SubQuery) FilteredContext {
	return FilteredContext{
		SubQuery: sub,
		Rendered: NoContextFound,
	}
}

// CombinedContext concatenates the retrieved contexts in sub-query order,
// each block headed by the sub-question it answers. Synthesis and review both
// read this rendering. When nothing was retrieved for any sub-query it
// collapses to the single no-context marker so the model answers from its own
// knowledge.
func CombinedContext(contexts []FilteredContext) string {
	allEmpty := true
	for _, c := range contexts {
		if !c.Empty() {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return NoContextFound
	}

	var b strings.Builder
	for i, c := range contexts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Sub-question: ")
		b.WriteString(string(c.SubQuery))
		b.WriteString("\n")
		b.WriteString(c.Rendered)
	}
	return b.String()
}
