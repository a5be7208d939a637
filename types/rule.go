package types

import (
	"sort"
	"strings"

	"github.com/ram-framework/ram/input"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Rule is an opaque SIEM detection rule. RAM never parses the rule syntax;
// the text is forwarded verbatim to the language model. Any format is
// accepted (Splunk SPL, Elasticsearch DSL, KQL, Sigma, ...).
type Rule struct {
	// Text is the raw rule content exactly as submitted.
	Text string `json:"text"`
}

// NewRule wraps raw rule text.
func NewRule(text string) Rule {
	return Rule{Text: text}
}

// IsEmpty returns true if the rule contains no non-whitespace content.
func (r Rule) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Validate checks that the rule has content.
func (r Rule) Validate() error {
	if r.IsEmpty() {
		return &ValidationError{Field: "Text", Message: "rule text is required"}
	}
	return nil
}

// IoCSet groups extracted indicators of compromise by category. Categories
// are free-form labels produced by the model ("processes", "files",
// "registry_keys", ...); values are the indicator strings themselves.
// Neither side is validated structurally.
type IoCSet map[string][]string

// IoCSetFromMap builds an IoCSet from a loosely-typed JSON object by
// coercing each category's value to a string list. Categories whose values
// cannot be read as strings are dropped.
func IoCSetFromMap(m map[string]any) IoCSet {
	if len(m) == 0 {
		return IoCSet{}
	}
	set := make(IoCSet, len(m))
	for category := range m {
		if values := input.GetStringSlice(m, category); len(values) > 0 {
			set[category] = values
		}
	}
	return set
}

// Count returns the total number of indicator values across all categories.
func (s IoCSet) Count() int {
	n := 0
	for _, values := range s {
		n += len(values)
	}
	return n
}

// IsEmpty returns true if the set holds no indicator values.
func (s IoCSet) IsEmpty() bool {
	return s.Count() == 0
}

// Categories returns the category labels in sorted order, so that callers
// iterating the set produce a deterministic sequence.
func (s IoCSet) Categories() []string {
	categories := make([]string, 0, len(s))
	for category := range s {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Values returns at most max indicator values for a category. A non-positive
// max returns all values.
func (s IoCSet) Values(category string, max int) []string {
	values := s[category]
	if max > 0 && len(values) > max {
		return values[:max]
	}
	return values
}

// ContextSnippet is one retrieved piece of context for one indicator value.
type ContextSnippet struct {
	// IoC is the indicator value the snippet was retrieved for.
	IoC string `json:"ioc"`

	// Query is the search query that produced the snippet.
	Query string `json:"query"`

	// Text is the snippet content, or a fixed fallback when retrieval
	// produced nothing usable.
	Text string `json:"text"`

	// SourceURL links to the snippet's source where the search API
	// provided one.
	SourceURL string `json:"source_url,omitempty"`
}

// Snippets is an ordered collection of context snippets for one analysis run.
type Snippets []ContextSnippet

// IsEmpty returns true if no snippets were collected.
func (s Snippets) IsEmpty() bool {
	return len(s) == 0
}

// TextByIoC flattens the snippets into an indicator-to-text map, the shape
// the translation prompt embeds as JSON. Later snippets for the same
// indicator overwrite earlier ones.
func (s Snippets) TextByIoC() map[string]string {
	m := make(map[string]string, len(s))
	for _, snippet := range s {
		m[snippet.IoC] = snippet.Text
	}
	return m
}
