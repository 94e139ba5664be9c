package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/kalambet/careervibe/internal/proxy"
)

const providerOpenRouter = "openrouter"

// OpenRouterGenerator sends prompts to a cloud model through OpenRouter.
type OpenRouterGenerator struct {
	client *proxy.Client
	model  string
}

func NewOpenRouterGenerator(client *proxy.Client, model string) *OpenRouterGenerator {
	return &OpenRouterGenerator{client: client, model: model}
}

func (g *OpenRouterGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := proxy.ChatRequest{
		Model:    g.model,
		Messages: []proxy.Message{{Role: "user", Content: prompt}},
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}
	if opts.JSONMode {
		req.ResponseFormat = proxy.JSONObject
	}

	out, err := g.client.Complete(ctx, req)
	if err != nil {
		return "", &GenerationError{Provider: providerOpenRouter, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &GenerationError{Provider: providerOpenRouter, Err: errors.New("empty completion")}
	}
	return out, nil
}
