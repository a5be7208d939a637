package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultConfidence is assumed when a scoring response carries no
// CONFIDENCE line at all.
const DefaultConfidence = 0.5

var (
	confidenceRe = regexp.MustCompile(`CONFIDENCE:\s*([0-9.]+)`)
	reasoningRe  = regexp.MustCompile(`(?s)REASONING:\s*(.*)`)
)

// Score is the parsed result of a relevance-scoring response, which the
// model produces in the form:
//
//	CONFIDENCE: [score]
//	REASONING: [free text]
type Score struct {
	// Confidence is the parsed score, clamped to [0,1].
	Confidence float64

	// Reasoning is the free-text justification. Empty when the response
	// carried no REASONING section.
	Reasoning string
}

// ParseScore extracts the CONFIDENCE/REASONING protocol from model text.
//
// A response without a CONFIDENCE line scores DefaultConfidence. A
// CONFIDENCE line whose value does not parse as a number is an error, since
// the response shape cannot be trusted. Parsed values outside [0,1] are
// clamped.
func ParseScore(text string) (Score, error) {
	score := Score{Confidence: DefaultConfidence}

	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Score{}, fmt.Errorf("unparseable confidence %q: %w", m[1], err)
		}
		score.Confidence = clamp01(value)
	}

	if m := reasoningRe.FindStringSubmatch(text); m != nil {
		score.Reasoning = strings.TrimSpace(m[1])
	}

	return score, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
