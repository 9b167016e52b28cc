package interfaces

import "context"

// TextGenerator sends a single instruction prompt to a remote model
// and returns the generated text.
type TextGenerator interface {
	// Generate returns the model's text for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs
	Name() string
}

// FailureCounter tracks consecutive remote failures across requests
type FailureCounter interface {
	// Increment bumps the persisted count and returns the new value
	Increment(ctx context.Context) (int, error)

	// Reset clears the persisted count. Errors are logged, not returned.
	Reset(ctx context.Context)
}

// HistoryRecorder persists successful generations
type HistoryRecorder interface {
	Record(ctx context.Context, rec *GenerationRecord) error
}

// GenerationRecord is one successful generation
type GenerationRecord struct {
	Keywords         string
	NegativeKeywords string
	Style            string
	PositivePrompt   string
	NegativePrompt   string
	SamplingMethod   string
	Scheduler        string
}
