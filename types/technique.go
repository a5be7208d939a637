package types

import (
	"sort"

	"github.com/ram-framework/ram/input"
)

// Default field values for candidates the model returned incompletely.
const (
	// UnknownTechnique stands in for a missing technique ID or name.
	UnknownTechnique = "Unknown"

	// NoDescription stands in for a missing technique description.
	NoDescription = "No description"

	// NoReasoning stands in for a scoring response without a REASONING section.
	NoReasoning = "No reasoning provided"
)

// HighConfidenceFloor is the confidence at or above which a mapping counts
// as high confidence in summary statistics.
const HighConfidenceFloor = 0.8

// TechniqueCandidate is one candidate ATT&CK technique proposed by the
// recommendation stage, before relevance scoring.
type TechniqueCandidate struct {
	// ID is the ATT&CK technique or sub-technique ID (e.g. "T1055",
	// "T1003.001"). The value comes from the model and is not checked
	// against the ATT&CK catalog.
	ID string `json:"id"`

	// Name is the technique name as the model reported it.
	Name string `json:"name"`

	// Description summarizes the technique.
	Description string `json:"description"`
}

// CandidateFromMap builds a candidate from a loosely-typed JSON object,
// substituting fixed defaults for missing or oddly-typed fields.
func CandidateFromMap(m map[string]any) TechniqueCandidate {
	return TechniqueCandidate{
		ID:          input.GetString(m, "id", UnknownTechnique),
		Name:        input.GetString(m, "name", UnknownTechnique),
		Description: input.GetString(m, "description", NoDescription),
	}
}

// CandidatesFromMaps converts a decoded JSON array of technique objects.
func CandidatesFromMaps(ms []map[string]any) []TechniqueCandidate {
	if len(ms) == 0 {
		return nil
	}
	candidates := make([]TechniqueCandidate, 0, len(ms))
	for _, m := range ms {
		candidates = append(candidates, CandidateFromMap(m))
	}
	return candidates
}

// TechniqueMapping is the final output unit: one technique the analysis
// judged relevant to the rule, with the model's confidence and reasoning.
type TechniqueMapping struct {
	// TechniqueID is the ATT&CK technique or sub-technique ID.
	TechniqueID string `json:"technique_id"`

	// Name is the technique name.
	Name string `json:"name"`

	// Description summarizes the technique.
	Description string `json:"description,omitempty"`

	// Confidence is the model's relevance score, clamped to [0,1].
	Confidence float64 `json:"confidence"`

	// Reasoning is the model's free-text justification for the score.
	Reasoning string `json:"reasoning"`
}

// Validate checks the mapping's required fields and confidence range.
func (m *TechniqueMapping) Validate() error {
	if m.TechniqueID == "" {
		return &ValidationError{Field: "TechniqueID", Message: "technique ID is required"}
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return &ValidationError{Field: "Confidence", Message: "confidence must be within [0,1]"}
	}
	return nil
}

// IsHighConfidence returns true if the mapping's confidence reaches the
// high-confidence floor.
func (m *TechniqueMapping) IsHighConfidence() bool {
	return m.Confidence >= HighConfidenceFloor
}

// Mappings is an ordered list of technique mappings.
type Mappings []TechniqueMapping

// SortByConfidence orders the mappings by descending confidence. The sort
// is stable so equal-confidence mappings keep their scoring order.
func (ms Mappings) SortByConfidence() {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Confidence > ms[j].Confidence
	})
}

// Top returns at most n mappings from the front of the list. A non-positive
// n returns the list unchanged.
func (ms Mappings) Top(n int) Mappings {
	if n > 0 && len(ms) > n {
		return ms[:n]
	}
	return ms
}

// AverageConfidence returns the mean confidence, or 0 for an empty list.
func (ms Mappings) AverageConfidence() float64 {
	if len(ms) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range ms {
		sum += m.Confidence
	}
	return sum / float64(len(ms))
}

// HighConfidenceCount returns how many mappings reach the high-confidence
// floor.
func (ms Mappings) HighConfidenceCount() int {
	n := 0
	for _, m := range ms {
		if m.IsHighConfidence() {
			n++
		}
	}
	return n
}
