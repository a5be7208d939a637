// Package input provides type-safe helpers for reading values out of the
// map[string]any objects that decoding model output produces.
//
// Language models rarely honor a schema exactly: numbers arrive where
// strings were requested, lists collapse to scalars, fields go missing.
// These helpers absorb that variation, returning sensible defaults instead
// of failing, so a sloppy but usable model response still flows through
// the pipeline.
package input

import "fmt"

// GetString extracts a string value from the map with a default fallback.
// Numeric and boolean values are stringified, matching how a technique ID
// the model emitted as a bare number should still read as "1055". Returns
// defaultVal if the key doesn't exist, the value is nil, or the value is a
// composite (object or array).
func GetString(m map[string]any, key string, defaultVal string) string {
	if m == nil {
		return defaultVal
	}

	val, ok := m[key]
	if !ok || val == nil {
		return defaultVal
	}

	s, ok := stringify(val)
	if !ok {
		return defaultVal
	}
	return s
}

// GetStringSlice extracts a []string value from the map.
// Handles []string, []any (stringifying each scalar element), and bare
// scalars (wrapped in a single-element slice). Returns nil if the key
// doesn't exist, the value is nil, or nothing could be converted.
func GetStringSlice(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}

	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}

	if slice, ok := val.([]string); ok {
		return slice
	}

	if slice, ok := val.([]any); ok {
		result := make([]string, 0, len(slice))
		for _, item := range slice {
			if item == nil {
				continue
			}
			if s, ok := stringify(item); ok {
				result = append(result, s)
			}
		}
		if len(result) == 0 {
			return nil
		}
		return result
	}

	// A scalar where a list was expected still carries one usable value.
	if s, ok := stringify(val); ok {
		return []string{s}
	}

	return nil
}

// stringify converts scalar JSON values to their display string. JSON
// numbers decode as float64; integral floats print without a trailing
// ".0" so identifiers round-trip cleanly.
func stringify(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), true
		}
		return fmt.Sprintf("%g", v), true
	case float32:
		return stringify(float64(v))
	case int:
		return fmt.Sprintf("%d", v), true
	case int64:
		return fmt.Sprintf("%d", v), true
	case bool:
		return fmt.Sprintf("%t", v), true
	default:
		return "", false
	}
}
