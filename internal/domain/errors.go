package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryEmpty signals a blank query.
	ErrQueryEmpty = errors.New("query is empty")
	// ErrQueryTooLong signals a sub-query exceeding the provider length limit.
	ErrQueryTooLong = errors.New("query too long")

	// ErrModelUnavailable signals a transient language model failure.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrModelRejected signals a permanent language model refusal (bad request, auth).
	ErrModelRejected = errors.New("model rejected request")

	// ErrSearchUnavailable signals a transient search provider failure.
	ErrSearchUnavailable = errors.New("search provider unavailable")
	// ErrSearchRateLimited signals a search provider rate limit hit.
	ErrSearchRateLimited = errors.New("search rate limited")
	// ErrSearchRejected signals a permanent search provider refusal.
	ErrSearchRejected = errors.New("search provider rejected request")
)

// IsTransientSearch reports whether a search failure is worth retrying.
func IsTransientSearch(err error) bool {
	return errors.Is(err, ErrSearchUnavailable) || errors.Is(err, ErrSearchRateLimited)
}

// IsTransientModel reports whether a model failure is worth retrying.
func IsTransientModel(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

// DecompositionError is fatal to a run: the model could not produce sub-queries
// at all (beyond the malformed-output fallback, which is not an error).
type DecompositionError struct {
	Query Query
	Err   error
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("decomposition failed: %v", e.Err)
}

func (e *DecompositionError) Unwrap() error { return e.Err }

// NewDecompositionError wraps a fatal decomposition failure.
func NewDecompositionError(q Query, err error) error {
	return &DecompositionError{Query: q, Err: err}
}

// RetrievalError is per-SubQuery and non-fatal: the orchestrator absorbs it as
// an empty context instead of failing the run.
type RetrievalError struct {
	SubQuery SubQuery
	Attempts int
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for %q after %d attempt(s): %v", e.SubQuery, e.Attempts, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// NewRetrievalError wraps an exhausted or rejected search for one sub-query.
func NewRetrievalError(sub SubQuery, attempts int, err error) error {
	return &RetrievalError{SubQuery: sub, Attempts: attempts, Err: err}
}

// SynthesisError is fatal to a run: the model failed during the final answer.
type SynthesisError struct {
	Query Query
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// NewSynthesisError wraps a fatal synthesis failure.
func NewSynthesisError(q Query, err error) error {
	return &SynthesisError{Query: q, Err: err}
}
