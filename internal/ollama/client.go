// Package ollama is a small client for the parts of the Ollama HTTP API the
// advisor needs: one-shot completions and model management.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JSONFormat constrains a completion to a JSON object.
const JSONFormat = "json"

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. Requests carry no client
// timeout; callers bound them with ctx.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ollama: status %d: %s", e.Status, e.Message)
}

// call sends in as JSON (when non-nil) and returns the response for a 2xx
// status. Anything else is drained into an *APIError.
func (c *Client) call(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	var env struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		msg = env.Error
	}
	return nil, &APIError{Status: resp.StatusCode, Message: msg}
}

// IsRunning pings the server with a short deadline.
func (c *Client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := c.call(ctx, http.MethodGet, "/api/version", nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// HasModel reports whether name is installed. A bare name resolves to its
// "latest" tag on the server side.
func (c *Client) HasModel(ctx context.Context, name string) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.call(ctx, http.MethodPost, "/api/show", map[string]string{"model": name})
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// PullProgress is one status line of a streamed pull.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PullModel downloads name and reports each status line to onProgress,
// which may be nil. An error line in the stream fails the pull.
func (c *Client) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	resp, err := c.call(ctx, http.MethodPost, "/api/pull", map[string]any{"model": name, "stream": true})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", name, err)
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var p PullProgress
		if err := json.Unmarshal(line, &p); err != nil {
			return fmt.Errorf("pulling %s: bad progress line: %w", name, err)
		}
		if p.Error != "" {
			return fmt.Errorf("pulling %s: %s", name, p.Error)
		}
		if onProgress != nil {
			onProgress(p)
		}
	}
	return sc.Err()
}

// GenerateRequest is a single non-streamed completion.
type GenerateRequest struct {
	Model  string
	Prompt string
	// Format is JSONFormat, a JSON schema, or nil for free text.
	Format      any
	Temperature float64
}

// ErrNotDone is returned when the server closes a completion early.
var ErrNotDone = errors.New("ollama: completion not finished")

// Generate runs a completion and returns the generated text.
func (c *Client) Generate(ctx context.Context, r GenerateRequest) (string, error) {
	body := map[string]any{
		"model":  r.Model,
		"prompt": r.Prompt,
		"stream": false,
	}
	if r.Format != nil {
		body["format"] = r.Format
	}
	if r.Temperature > 0 {
		body["options"] = map[string]any{"temperature": r.Temperature}
	}

	resp, err := c.call(ctx, http.MethodPost, "/api/generate", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding completion: %w", err)
	}
	if !out.Done {
		return "", ErrNotDone
	}
	return out.Response, nil
}
