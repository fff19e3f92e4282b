package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"assistant-relay/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TextGenerator = (*OllamaGenerator)(nil)

// OllamaGenerator implements adapter.TextGenerator against a local Ollama
// server's /api/generate endpoint. Streaming responses arrive as one JSON
// object per line.
type OllamaGenerator struct {
	base      string // e.g., http://localhost:11434
	model     string
	maxTokens int
	client    *http.Client
}

func NewOllamaGenerator(base, model string, maxTokens int) (*OllamaGenerator, error) {
	if base == "" {
		return nil, errors.New("ollama base url empty")
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaGenerator{
		base:      strings.TrimRight(base, "/"),
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (o *OllamaGenerator) Name() string { return "ollama" }

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (o *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return o.run(ctx, prompt, false, nil)
}

func (o *OllamaGenerator) GenerateStream(ctx context.Context, prompt string, onDelta adapter.StreamFunc) (string, error) {
	return o.run(ctx, prompt, true, onDelta)
}

func (o *OllamaGenerator) run(ctx context.Context, prompt string, stream bool, onDelta adapter.StreamFunc) (string, error) {
	body := ollamaRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: stream,
		Options: map[string]any{
			"temperature": 0.7,
			"top_p":       0.9,
		},
	}
	if o.maxTokens > 0 {
		body.Options["num_predict"] = o.maxTokens
	}

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama http %d", resp.StatusCode)
	}

	if !stream {
		var chunk ollamaChunk
		if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
			return "", err
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama: %s", chunk.Error)
		}
		return chunk.Response, nil
	}

	var full strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return full.String(), fmt.Errorf("ollama: %s", chunk.Error)
		}
		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onDelta != nil {
				onDelta(chunk.Response)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return full.String(), err
	}
	return full.String(), nil
}
