package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/dialogue"
)

type recordedRequest struct {
	Method      string
	Path        string
	Body        string
	Auth        string
	ContentType string
}

type testServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)
		r.Body.Close()

		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.RequestURI(),
			Body:        body.String(),
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
		})
		ts.mu.Unlock()

		if handler != nil {
			r.Body = io.NopCloser(bytes.NewReader(body.Bytes()))
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

// routes serves canned JSON per "METHOD /path".
func routes(responses map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp, ok := responses[r.Method+" "+r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

func (ts *testServer) recorded() []recordedRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]recordedRequest(nil), ts.requests...)
}

var ctx = context.Background()

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, routes(map[string]string{"GET /health": `{"status":"ok"}`}))

	resp, err := ts.client().get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got := ts.recorded()[0].Auth; got != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.server.Close()

	_, err := ts.client().get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Профессия обязательна","type":"invalid_request_error"}}`))
	})

	resp, err := ts.client().post(ctx, "/v1/cards", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v map[string]any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if err.Error() != "server returned 400: Профессия обязательна" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestDecodeJSON_PlainErrorBody(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	resp, _ := ts.client().get(ctx, "/v1/professions")
	var v any
	if err := decodeJSON(resp, &v); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("decodeJSON() error = %v, want it to include the body", err)
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorGreen, "test message"); got != "test message" {
		t.Errorf("colorize with noColor=true = %q, want %q", got, "test message")
	}

	noColor = false
	if got := colorize(colorGreen, "test message"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", got)
	}
}

// chatBackend answers like the orchestrator: a greeting first, then an echo
// whose buttons are fixed.
func chatBackend(t *testing.T, got *[]dialogue.Request) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dialogue.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding chat request: %v", err)
		}
		*got = append(*got, req)

		resp := dialogue.Response{Stage: chat.StageInitial}
		if len(req.History) == 0 {
			resp.Message = chat.ResponseMessage{
				Type:    chat.TypeButtons,
				Content: "Привет! Что тебе интересно?",
				Buttons: []string{"Хочу в IT", "Не знаю"},
			}
		} else {
			resp.Message = chat.ResponseMessage{Type: chat.TypeText, Content: "Ты сказал: " + req.Message}
			resp.Persona.CurrentRole = "Бариста"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestRunChat(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	var got []dialogue.Request
	ts := newTestServer(t, chatBackend(t, &got))

	var out bytes.Buffer
	in := strings.NewReader("2\nещё вопрос\n/quit\n")
	if err := runChat(ctx, ts.client(), in, &out); err != nil {
		t.Fatalf("runChat() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("sent %d chat requests, want 3", len(got))
	}
	if got[0].Message != "" || len(got[0].History) != 0 {
		t.Errorf("first request = %+v, want empty greeting request", got[0])
	}
	if got[1].Message != "Не знаю" {
		t.Errorf("button 2 sent %q, want %q", got[1].Message, "Не знаю")
	}
	if len(got[1].History) != 1 || got[1].History[0].Role != chat.RoleAssistant {
		t.Errorf("second request history = %+v, want the greeting only", got[1].History)
	}
	if len(got[2].History) != 3 {
		t.Errorf("third request history length = %d, want 3", len(got[2].History))
	}
	if got[2].Persona == nil || got[2].Persona.CurrentRole != "Бариста" {
		t.Errorf("persona not carried over: %+v", got[2].Persona)
	}

	for _, want := range []string{"Привет! Что тебе интересно?", "[2] Не знаю", "Ты сказал: ещё вопрос"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunChat_Reset(t *testing.T) {
	var got []dialogue.Request
	ts := newTestServer(t, chatBackend(t, &got))

	in := strings.NewReader("привет\n/reset\n")
	if err := runChat(ctx, ts.client(), in, &bytes.Buffer{}); err != nil {
		t.Fatalf("runChat() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("sent %d chat requests, want 3", len(got))
	}
	if len(got[2].History) != 0 || got[2].Persona != nil {
		t.Errorf("request after /reset = %+v, want a fresh session", got[2])
	}
}

func TestChatSessionResolve(t *testing.T) {
	s := &chatSession{buttons: []string{"Да", "Нет"}}
	tests := []struct {
		in, want string
	}{
		{"1", "Да"},
		{"2", "Нет"},
		{"3", "3"},
		{"0", "0"},
		{"да", "да"},
	}
	for _, tt := range tests {
		if got := s.resolve(tt.in); got != tt.want {
			t.Errorf("resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		f, hdr, err := r.FormFile("resume")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		var buf bytes.Buffer
		buf.ReadFrom(f)
		if hdr.Filename != "cv.txt" || buf.String() != "Бариста" {
			t.Errorf("file = %s %q", hdr.Filename, buf.String())
		}
		if got := r.FormValue("persona"); got != `{"location":"moscow"}` {
			t.Errorf("persona field = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"currentRole":"Бариста","location":"moscow"}`))
	})

	path := filepath.Join(t.TempDir(), "cv.txt")
	if err := os.WriteFile(path, []byte("Бариста"), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := ts.client().upload(ctx, "/v1/persona/resume", "resume", path, map[string]string{"persona": `{"location":"moscow"}`})
	if err != nil {
		t.Fatalf("upload() error = %v", err)
	}
	var p map[string]string
	if err := decodeJSON(resp, &p); err != nil {
		t.Fatalf("decodeJSON() error = %v", err)
	}
	if p["currentRole"] != "Бариста" {
		t.Errorf("persona = %v", p)
	}
	if ct := ts.recorded()[0].ContentType; !strings.HasPrefix(ct, "multipart/form-data") {
		t.Errorf("Content-Type = %q, want multipart/form-data", ct)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	ts := newTestServer(t, nil)
	if _, err := ts.client().upload(ctx, "/v1/persona/resume", "resume", filepath.Join(t.TempDir(), "nope.pdf"), nil); err == nil {
		t.Error("upload() error = nil, want error for a missing file")
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, json.RawMessage(`{"b":1,"a":"<x>"}`)); err != nil {
		t.Fatalf("printJSON() error = %v", err)
	}
	want := "{\n  \"a\": \"<x>\",\n  \"b\": 1\n}\n"
	if buf.String() != want {
		t.Errorf("printJSON() = %q, want %q", buf.String(), want)
	}
}
