package engine

import (
	"fmt"

	"github.com/kalambet/careervibe/internal/proxy"
)

// Config selects and parameterizes the generation backend.
type Config struct {
	Provider         string
	OllamaBaseURL    string
	OllamaModel      string
	OpenRouterAPIKey string
	OpenRouterModel  string
	// OpenRouterBaseURL overrides the public endpoint. Empty means default.
	OpenRouterBaseURL string
}

// New returns the Generator for cfg.Provider.
func New(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case providerOllama:
		return NewOllamaGenerator(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	case providerOpenRouter, "":
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("openrouter provider requires an API key")
		}
		var opts []proxy.Option
		if cfg.OpenRouterBaseURL != "" {
			opts = append(opts, proxy.WithBaseURL(cfg.OpenRouterBaseURL))
		}
		return NewOpenRouterGenerator(proxy.NewClient(cfg.OpenRouterAPIKey, opts...), cfg.OpenRouterModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
