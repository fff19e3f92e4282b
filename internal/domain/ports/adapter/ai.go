package adapter

import "context"

// StreamFunc receives incremental output as the provider produces it.
type StreamFunc func(delta string)

// TextGenerator is the port for the language model behind the worker.
// Implementations must honor ctx cancellation mid-generation.
type TextGenerator interface {
	Name() string

	// Generate returns the full reply for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream invokes onDelta for each output fragment and returns the
	// assembled reply. Providers without native streaming may call onDelta
	// once with the whole text.
	GenerateStream(ctx context.Context, prompt string, onDelta StreamFunc) (string, error)
}
