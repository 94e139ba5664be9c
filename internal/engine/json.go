package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotJSON is returned when a completion holds no parseable JSON document.
var ErrNotJSON = errors.New("completion is not valid JSON")

// ExtractJSON returns the JSON document embedded in raw. Models in JSON mode
// still occasionally wrap output in markdown fences or add a lead-in line.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if gjson.Valid(s) {
		return s, nil
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", ErrNotJSON
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return "", ErrNotJSON
	}
	s = s[start : end+1]
	if !gjson.Valid(s) {
		return "", ErrNotJSON
	}
	return s, nil
}

// DecodeJSON extracts the JSON document from raw and unmarshals it into v.
func DecodeJSON(raw string, v any) error {
	s, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(s), v)
}

// GenerateJSON runs a JSON-mode generation and decodes the result into v.
func GenerateJSON(ctx context.Context, g Generator, prompt string, temperature float64, v any) error {
	out, err := g.Generate(ctx, prompt, Options{Temperature: temperature, JSONMode: true})
	if err != nil {
		return err
	}
	return DecodeJSON(out, v)
}

// GenerateText runs a free-text generation and trims the result.
func GenerateText(ctx context.Context, g Generator, prompt string, temperature float64) (string, error) {
	out, err := g.Generate(ctx, prompt, Options{Temperature: temperature})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ParseJSON extracts the JSON document from raw for field-by-field reading.
// Use it where the model may mistype fields.
func ParseJSON(raw string) (gjson.Result, error) {
	s, err := ExtractJSON(raw)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(s), nil
}

// Strings reads r as a list of strings. A bare string becomes a one-element
// list; empty entries are dropped.
func Strings(r gjson.Result) []string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if !r.IsArray() {
		if s := strings.TrimSpace(r.String()); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, v := range r.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
