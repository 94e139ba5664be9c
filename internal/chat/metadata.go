package chat

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metadata is the free-form map attached to assistant messages. Values come
// back from clients as decoded JSON, so numbers may arrive as float64,
// json.Number or strings.
type Metadata map[string]any

// Bool reports whether key holds true.
func (m Metadata) Bool(key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

// String returns the string under key, or "".
func (m Metadata) String(key string) string {
	v, _ := m[key].(string)
	return v
}

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Int returns the integer under key, or 0.
func (m Metadata) Int(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 0
}

// Decode re-marshals the value under key into out. It reports whether the
// key was present and decodable.
func (m Metadata) Decode(key string, out any) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}
