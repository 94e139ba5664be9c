// Package proxy talks to OpenRouter's OpenAI-compatible completion API.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 90 * time.Second
	maxAttempts    = 3
	firstBackoff   = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

type Client struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	http    *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAppInfo sets the attribution headers OpenRouter shows in its dashboard.
func WithAppInfo(referer, title string) Option {
	return func(c *Client) { c.referer, c.title = referer, title }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		referer: "https://hh-vibe.ru",
		title:   "careervibe",
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is a non-200 reply.
type StatusError struct {
	Code       int
	Message    string
	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openrouter: status %d: %s", e.Code, e.Message)
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Complete sends req and returns the first choice's content. Rate limits and
// upstream 5xx replies are retried with exponential backoff, or after the
// server's Retry-After when it sends one.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	backoff := firstBackoff
	for attempt := 1; ; attempt++ {
		raw, err := c.post(ctx, "/chat/completions", body)
		if err == nil {
			return parseCompletion(raw)
		}

		var se *StatusError
		if !errors.As(err, &se) || !se.Temporary() || attempt == maxAttempts {
			return "", err
		}

		wait := backoff
		if se.retryAfter > 0 {
			wait = min(se.retryAfter, maxBackoff)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openrouter: reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		se := &StatusError{Code: resp.StatusCode, Message: msg}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			se.retryAfter = time.Duration(secs) * time.Second
		}
		return nil, se
	}
	return raw, nil
}

// parseCompletion extracts choices[0].message.content. OpenRouter reports
// some upstream failures as a 200 with an error object.
func parseCompletion(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.New("openrouter: malformed completion")
	}
	res := gjson.ParseBytes(raw)
	if msg := res.Get("error.message"); msg.Exists() {
		return "", fmt.Errorf("openrouter: completion error: %s", msg.String())
	}
	content := res.Get("choices.0.message.content")
	if !content.Exists() {
		return "", errors.New("openrouter: completion has no choices")
	}
	return content.String(), nil
}
