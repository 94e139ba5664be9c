package engine

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

type mockModels struct {
	isRunning bool
	models    map[string]bool
	pulled    []string
}

func (m *mockModels) IsRunning(_ context.Context) bool { return m.isRunning }
func (m *mockModels) HasModel(_ context.Context, name string) bool { return m.models[name] }
func (m *mockModels) PullModel(_ context.Context, name string, cb func(PullProgress)) error {
	m.pulled = append(m.pulled, name)
	if cb != nil {
		cb(PullProgress{Status: "downloading", Total: 10, Completed: 5})
		cb(PullProgress{Status: "success"})
	}
	return nil
}

func TestEnsureModel_Present(t *testing.T) {
	m := &mockModels{isRunning: true, models: map[string]bool{"qwen2.5:7b": true}}
	if err := ensureModel(context.Background(), m, "qwen2.5:7b", io.Discard); err != nil {
		t.Fatalf("ensureModel: %v", err)
	}
	if len(m.pulled) != 0 {
		t.Errorf("expected no pulls, got %v", m.pulled)
	}
}

func TestEnsureModel_PullsMissing(t *testing.T) {
	m := &mockModels{isRunning: true, models: map[string]bool{}}
	var out bytes.Buffer
	if err := ensureModel(context.Background(), m, "qwen2.5:7b", &out); err != nil {
		t.Fatalf("ensureModel: %v", err)
	}
	if len(m.pulled) != 1 || m.pulled[0] != "qwen2.5:7b" {
		t.Errorf("expected pull of qwen2.5:7b, got %v", m.pulled)
	}
	if !strings.Contains(out.String(), "downloading 50%") {
		t.Errorf("progress output = %q, want percentage line", out.String())
	}
}

func TestEnsureModel_EngineDown(t *testing.T) {
	m := &mockModels{isRunning: false}
	if err := ensureModel(context.Background(), m, "qwen2.5:7b", io.Discard); err == nil {
		t.Fatal("expected error when engine is down")
	}
}

func TestEnsureReady_NoWarmUp(t *testing.T) {
	g := GenerateFunc(func(context.Context, string, Options) (string, error) { return "", nil })
	if err := EnsureReady(context.Background(), g, io.Discard); err != nil {
		t.Errorf("EnsureReady() = %v, want nil for generators without warm-up", err)
	}
}
