package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"assistant-relay/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator implements adapter.TextGenerator using the official SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	maxOut int
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxOut int) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: c, model: model, maxOut: maxOut}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) config() *genai.GenerateContentConfig {
	if g.maxOut <= 0 {
		return nil
	}
	return &genai.GenerateContentConfig{MaxOutputTokens: int32(g.maxOut)}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config())
	if err != nil {
		return "", err
	}
	return candidateText(resp), nil
}

func (g *GeminiGenerator) GenerateStream(ctx context.Context, prompt string, onDelta adapter.StreamFunc) (string, error) {
	full := ""
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), g.config()) {
		if err != nil {
			return full, err
		}
		if t := candidateText(resp); t != "" {
			full += t
			if onDelta != nil {
				onDelta(t)
			}
		}
	}
	return full, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return ""
	}
	return c.Content.Parts[0].Text
}
