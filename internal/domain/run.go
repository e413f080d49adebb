package domain

// RunStatus is the orchestrator state machine position of a run.
type RunStatus string

const (
	StatusReceived     RunStatus = "received"
	StatusDecomposing  RunStatus = "decomposing"
	StatusRetrieving   RunStatus = "retrieving"
	StatusSynthesizing RunStatus = "synthesizing"
	StatusReviewing    RunStatus = "reviewing"
	StatusComplete     RunStatus = "complete"
	StatusFailed       RunStatus = "failed"
)

// Terminal reports whether the run has finished, successfully or not.
func (s RunStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

func (s RunStatus) String() string { return string(s) }

// RunState is the unit of checkpointing: everything one end-to-end execution
// produced. Contexts is index-aligned with SubQueries, preserving decomposition
// order regardless of retrieval completion order. A RunState stored under its
// fingerprint is complete and must be treated as immutable.
type RunState struct {
	// ID identifies this execution in logs. Not part of the fingerprint.
	ID          string
	Query       Query
	Fingerprint string
	SubQueries  []SubQuery
	Contexts    []FilteredContext
	Answer      string
	Outcome     DecompositionOutcome
	// Reviewed is set when the answer survived (or was rebuilt by) a review pass.
	Reviewed bool
	Status   RunStatus
}

// AllContextsEmpty reports whether every sub-query retrieval came back empty.
func (r RunState) AllContextsEmpty() bool {
	for _, c := range r.Contexts {
		if !c.Empty() {
			return false
		}
	}
	return true
}
