package domain

import "strings"

// Query is the immutable free-text question supplied by the caller. Root of a run.
type Query string

// Normalized returns the query lower-cased with whitespace runs collapsed.
// Fingerprinting and atomicity checks operate on this form.
func (q Query) Normalized() string {
	return strings.ToLower(strings.Join(strings.Fields(string(q)), " "))
}

// Empty reports whether the query contains no text.
func (q Query) Empty() bool {
	return strings.TrimSpace(string(q)) == ""
}

// SubQuery is one atomic, independently searchable question derived from a Query.
type SubQuery string

// Words returns the whitespace-separated word count. Drives depth selection.
func (s SubQuery) Words() int {
	return len(strings.Fields(string(s)))
}

// DecompositionOutcome tags how a SubQuery sequence was obtained.
type DecompositionOutcome string

const (
	// OutcomeParsed means the model reply parsed cleanly into sub-queries.
	OutcomeParsed DecompositionOutcome = "parsed"
	// OutcomeFallback means the reply was malformed and the whole query is used as-is.
	OutcomeFallback DecompositionOutcome = "fallback"
)

// Decomposition is the ordered SubQuery sequence for a Query plus its outcome tag.
// The sequence is never empty: a query that is already atomic decomposes to itself.
type Decomposition struct {
	SubQueries []SubQuery
	Outcome    DecompositionOutcome
}

// Single wraps a query into a one-element fallback decomposition.
func Single(q Query) Decomposition {
	return Decomposition{
		SubQueries: []SubQuery{SubQuery(q)},
		Outcome:    OutcomeFallback,
	}
}
