package ai

import (
	"context"
	"time"

	"assistant-relay/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopGenerator)(nil)

// NoopGenerator implements adapter.TextGenerator for local/dev testing.
// It returns a canned reply instead of calling a real provider.
type NoopGenerator struct {
	Reply string
	Delay time.Duration
}

func NewNoopGenerator() *NoopGenerator {
	return &NoopGenerator{Reply: "This is a noop reply.", Delay: 50 * time.Millisecond}
}

func (n *NoopGenerator) Name() string { return "noop" }

func (n *NoopGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-time.After(n.Delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return n.Reply, nil
}

func (n *NoopGenerator) GenerateStream(ctx context.Context, prompt string, onDelta adapter.StreamFunc) (string, error) {
	select {
	case <-time.After(n.Delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if onDelta != nil {
		onDelta(n.Reply)
	}
	return n.Reply, nil
}
