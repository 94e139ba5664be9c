package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeOllama serves the endpoints the client uses. Installed models are
// listed in models; everything posted is decoded into last.
type fakeOllama struct {
	models map[string]bool
	last   map[string]any
	reply  string
	done   bool
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.last = nil
	if r.Method == http.MethodPost {
		json.NewDecoder(r.Body).Decode(&f.last)
	}

	switch r.URL.Path {
	case "/api/version":
		fmt.Fprint(w, `{"version":"0.5.7"}`)
	case "/api/show":
		if !f.models[f.last["model"].(string)] {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"error":"model '%s' not found"}`, f.last["model"])
			return
		}
		fmt.Fprint(w, `{"modelfile":""}`)
	case "/api/pull":
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"status":"downloading","total":100,"completed":40}`)
		fmt.Fprintln(w, `{"status":"success"}`)
	case "/api/generate":
		json.NewEncoder(w).Encode(map[string]any{"response": f.reply, "done": f.done})
	default:
		http.NotFound(w, r)
	}
}

func newFake(t *testing.T) (*fakeOllama, *Client) {
	t.Helper()
	f := &fakeOllama{models: map[string]bool{"qwen2.5": true}, done: true}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, New(srv.URL + "/")
}

func TestIsRunning(t *testing.T) {
	_, c := newFake(t)
	if !c.IsRunning(context.Background()) {
		t.Error("IsRunning() = false for a live server")
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	if New(srv.URL).IsRunning(context.Background()) {
		t.Error("IsRunning() = true for a closed server")
	}
}

func TestHasModel(t *testing.T) {
	f, c := newFake(t)
	ctx := context.Background()

	if !c.HasModel(ctx, "qwen2.5") {
		t.Error("HasModel(qwen2.5) = false, want true")
	}
	if f.last["model"] != "qwen2.5" {
		t.Errorf("show body = %v", f.last)
	}
	if c.HasModel(ctx, "llama3") {
		t.Error("HasModel(llama3) = true, want false")
	}
}

func TestPullModel_ReportsProgress(t *testing.T) {
	f, c := newFake(t)

	var got []PullProgress
	if err := c.PullModel(context.Background(), "llama3", func(p PullProgress) { got = append(got, p) }); err != nil {
		t.Fatalf("PullModel: %v", err)
	}
	if f.last["model"] != "llama3" || f.last["stream"] != true {
		t.Errorf("pull body = %v", f.last)
	}
	if len(got) != 3 {
		t.Fatalf("got %d progress lines, want 3", len(got))
	}
	if got[1].Total != 100 || got[1].Completed != 40 || got[2].Status != "success" {
		t.Errorf("progress = %+v", got)
	}
}

func TestPullModel_StreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"error":"pull model manifest: file does not exist"}`)
	}))
	defer srv.Close()

	err := New(srv.URL).PullModel(context.Background(), "nope", nil)
	if err == nil {
		t.Fatal("PullModel() error = nil, want the stream error")
	}
}

func TestGenerate(t *testing.T) {
	f, c := newFake(t)
	f.reply = `{"profession":"Бариста"}`

	out, err := c.Generate(context.Background(), GenerateRequest{
		Model:       "qwen2.5",
		Prompt:      "Опиши профессию",
		Format:      JSONFormat,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != f.reply {
		t.Errorf("Generate() = %q, want %q", out, f.reply)
	}
	if f.last["stream"] != false || f.last["format"] != "json" || f.last["prompt"] != "Опиши профессию" {
		t.Errorf("request body = %v", f.last)
	}
	opts, _ := f.last["options"].(map[string]any)
	if opts["temperature"] != 0.7 {
		t.Errorf("options = %v, want temperature 0.7", f.last["options"])
	}
}

func TestGenerate_FreeTextOmitsFormat(t *testing.T) {
	f, c := newFake(t)
	f.reply = "Привет!"

	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "qwen2.5", Prompt: "hi"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := f.last["format"]; ok {
		t.Errorf("format sent for free text: %v", f.last)
	}
	if _, ok := f.last["options"]; ok {
		t.Errorf("options sent without temperature: %v", f.last)
	}
}

func TestGenerate_NotDone(t *testing.T) {
	f, c := newFake(t)
	f.done = false

	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "qwen2.5", Prompt: "hi"}); !errors.Is(err, ErrNotDone) {
		t.Errorf("Generate() error = %v, want ErrNotDone", err)
	}
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model \"llama3\" not found, try pulling it first"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != `model "llama3" not found, try pulling it first` {
		t.Errorf("APIError = %+v", apiErr)
	}
}
