package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Bag is a stage's settings snapshot with lenient typed accessors. Values may
// arrive as native numbers and booleans or as strings typed on a command line.
type Bag map[string]any

// Has reports whether key is present.
func (b Bag) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// String returns the value as text, or fallback when absent.
func (b Bag) String(key, fallback string) string {
	value, ok := b[key]
	if !ok || value == nil {
		return fallback
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Float parses the value as a float. ok is false when absent or unparsable.
func (b Bag) Float(key string) (float64, bool) {
	value, present := b[key]
	if !present {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Int parses the value as an integer, truncating fractional input such as "12.0".
func (b Bag) Int(key string) (int, bool) {
	f, ok := b.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool reports whether the value is truthy: true, "true", "1", or "yes".
func (b Bag) Bool(key string) bool {
	value, ok := b[key]
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v == 1
	case int64:
		return v == 1
	case float64:
		return v == 1
	}
	switch strings.ToLower(strings.TrimSpace(fmt.Sprint(value))) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Strings returns a list value. A single string is split on whitespace.
func (b Bag) Strings(key string) []string {
	value, ok := b[key]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return strings.Fields(v)
	default:
		return []string{fmt.Sprint(v)}
	}
}

// ParseValue converts command-line text into the most specific scalar type so
// a typed project document round-trips numbers and booleans naturally.
func ParseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}
