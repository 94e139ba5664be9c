package engine

import (
	"context"
	"fmt"
)

// Options tunes a single generation call.
type Options struct {
	Temperature float64
	// JSONMode demands a single JSON document as output.
	JSONMode bool
}

// Generator abstracts the language-model backend. Consumers such as the
// intent classifier, persona detection and every sub-flow use this interface
// instead of depending on a concrete provider client.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GenerateFunc adapts a plain function to the Generator interface.
type GenerateFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// GenerationError wraps any provider failure: transport, status, or an
// empty completion.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
