package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence from model output.
// Models frequently wrap JSON in ```json ... ``` blocks even when asked
// not to.
func StripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}

// ExtractObject returns the widest {...} span in the text: from the first
// opening brace to the last closing brace. Model responses often surround
// the requested JSON with prose; the span discards it.
func ExtractObject(text string) (string, error) {
	text = StripFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}

	return text[start : end+1], nil
}

// ExtractArray returns the widest [...] span in the text, from the first
// opening bracket to the last closing bracket.
func ExtractArray(text string) (string, error) {
	text = StripFences(text)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON array found in response")
	}

	return text[start : end+1], nil
}

// ParseObject extracts and decodes a JSON object from model output into a
// loosely-typed map.
func ParseObject(text string) (map[string]any, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON object: %w", err)
	}
	return result, nil
}

// ParseArrayOfMaps extracts and decodes a JSON array of objects from model
// output. Non-object elements in the array are skipped.
func ParseArrayOfMaps(text string) ([]map[string]any, error) {
	raw, err := ExtractArray(text)
	if err != nil {
		return nil, err
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}

	results := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			results = append(results, m)
		}
	}
	return results, nil
}
