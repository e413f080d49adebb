package domain

import "context"

// Completer is the shared language model contract between layers. The model
// identifier is fixed at transport construction; callers only shape the prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// CompletionRequest is one prompt for the model.
type CompletionRequest struct {
	// System is the instruction framing; may be empty.
	System string
	// Prompt is the user-turn text.
	Prompt      string
	Temperature float32
	// MaxTokens bounds the reply length; 0 uses the transport default.
	MaxTokens int
}

// Completion is the model reply plus token usage for accounting.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
