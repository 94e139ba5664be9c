package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/kalambet/careervibe/internal/ollama"
)

// PullProgress reports download progress while a model is pulled.
type PullProgress = ollama.PullProgress

// readier is implemented by generators that need a warm-up step, such as
// pulling a local model.
type readier interface {
	Ready(ctx context.Context, w io.Writer) error
}

// EnsureReady prepares g for serving. Generators without a warm-up step are
// always ready.
func EnsureReady(ctx context.Context, g Generator, w io.Writer) error {
	if r, ok := g.(readier); ok {
		return r.Ready(ctx, w)
	}
	return nil
}

// modelManager is the slice of a local backend that EnsureReady relies on.
type modelManager interface {
	IsRunning(ctx context.Context) bool
	HasModel(ctx context.Context, name string) bool
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}

// ensureModel checks that the backend is reachable and the model is
// available. A missing model is pulled with progress output written to w.
func ensureModel(ctx context.Context, m modelManager, model string, w io.Writer) error {
	if !m.IsRunning(ctx) {
		return fmt.Errorf("local inference engine is not running; please ensure the backend is started")
	}
	if model == "" {
		return nil
	}

	if m.HasModel(ctx, model) {
		fmt.Fprintf(w, "model %s: ready\n", model)
		return nil
	}

	fmt.Fprintf(w, "model %s: pulling...\n", model)
	err := m.PullModel(ctx, model, func(p PullProgress) {
		if p.Total > 0 {
			pct := float64(p.Completed) / float64(p.Total) * 100
			fmt.Fprintf(w, "  %s %.0f%%\n", p.Status, pct)
		} else {
			fmt.Fprintf(w, "  %s\n", p.Status)
		}
	})
	if err != nil {
		return fmt.Errorf("pulling model %s: %w", model, err)
	}
	fmt.Fprintf(w, "model %s: ready\n", model)
	return nil
}
