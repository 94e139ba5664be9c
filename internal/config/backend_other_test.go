//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "careervibe", "config.yaml")

	b := newFileBackend(path)
	if err := b.SetInt("server.port", 4100); err != nil {
		t.Fatalf("SetInt() error: %v", err)
	}
	if err := b.SetString("share.base_url", "https://share.test"); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}

	reloaded := newFileBackend(path)
	port, ok, err := reloaded.GetInt("server.port")
	if err != nil || !ok || port != 4100 {
		t.Errorf("GetInt(server.port) = %d, %v, %v; want 4100, true, nil", port, ok, err)
	}
	url, ok, err := reloaded.GetString("share.base_url")
	if err != nil || !ok || url != "https://share.test" {
		t.Errorf("GetString(share.base_url) = %q, %v, %v", url, ok, err)
	}

	if err := reloaded.Delete("server.port"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := newFileBackend(path).GetInt("server.port"); ok {
		t.Error("server.port still present after Delete")
	}
}

func TestFileBackend_AcceptsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`{"market.area": 2, "log.level": "debug"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	b := newFileBackend(path)
	area, ok, err := b.GetInt("market.area")
	if err != nil || !ok || area != 2 {
		t.Errorf("GetInt(market.area) = %d, %v, %v; want 2, true, nil", area, ok, err)
	}
	level, _, _ := b.GetString("log.level")
	if level != "debug" {
		t.Errorf("GetString(log.level) = %q, want debug", level)
	}
}

func TestFileBackend_MalformedFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server.port: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := newFileBackend(path)
	if _, ok, _ := b.GetInt("server.port"); ok {
		t.Error("expected no value from malformed file")
	}
}
