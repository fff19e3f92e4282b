package ai

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"assistant-relay/internal/domain"
	"assistant-relay/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*ChainGenerator)(nil)

// ChainGenerator tries each configured provider in order and falls to the
// next one when a call fails. Context cancellation is not a provider fault
// and stops the chain immediately.
type ChainGenerator struct {
	providers []adapter.TextGenerator
	log       *zerolog.Logger
}

func NewChainGenerator(log *zerolog.Logger, providers ...adapter.TextGenerator) *ChainGenerator {
	kept := make([]adapter.TextGenerator, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &ChainGenerator{providers: kept, log: log}
}

func (c *ChainGenerator) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *ChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, p := range c.providers {
		reply, err := p.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warn().Err(err).Str("provider", p.Name()).Msg("generator failed, trying next")
		lastErr = err
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrNoGenerator
}

func (c *ChainGenerator) GenerateStream(ctx context.Context, prompt string, onDelta adapter.StreamFunc) (string, error) {
	var lastErr error
	for i, p := range c.providers {
		// Once a provider has emitted output, falling over would replay the
		// reply from the start, so only switch before the first delta.
		emitted := false
		guarded := func(delta string) {
			emitted = true
			if onDelta != nil {
				onDelta(delta)
			}
		}

		reply, err := p.GenerateStream(ctx, prompt, guarded)
		if err == nil {
			return reply, nil
		}
		if ctx.Err() != nil {
			return reply, ctx.Err()
		}
		if emitted {
			return reply, err
		}
		c.log.Warn().Err(err).Str("provider", p.Name()).Int("remaining", len(c.providers)-i-1).Msg("generator failed, trying next")
		lastErr = err
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrNoGenerator
}
