package engine

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/kalambet/careervibe/internal/ollama"
)

const providerOllama = "ollama"

// OllamaGenerator completes prompts on a local Ollama server.
type OllamaGenerator struct {
	client *ollama.Client
	model  string
}

func NewOllamaGenerator(baseURL, model string) *OllamaGenerator {
	return &OllamaGenerator{client: ollama.New(baseURL), model: model}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := ollama.GenerateRequest{Model: g.model, Prompt: prompt, Temperature: opts.Temperature}
	if opts.JSONMode {
		req.Format = ollama.JSONFormat
	}

	out, err := g.client.Generate(ctx, req)
	if err != nil {
		return "", &GenerationError{Provider: providerOllama, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &GenerationError{Provider: providerOllama, Err: errors.New("empty completion")}
	}
	return out, nil
}

// Ready verifies the server is up and pulls the configured model if missing.
func (g *OllamaGenerator) Ready(ctx context.Context, w io.Writer) error {
	return ensureModel(ctx, g.client, g.model, w)
}
