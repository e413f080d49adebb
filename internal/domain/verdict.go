package domain

// Verdict is the review pass judgment of a draft answer.
type Verdict string

const (
	// VerdictAccurate accepts the draft answer as-is.
	VerdictAccurate Verdict = "accurate"
	// VerdictInaccurate requests one re-retrieval and re-synthesis round.
	VerdictInaccurate Verdict = "inaccurate"
)
