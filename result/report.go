package result

import (
	"time"

	"github.com/google/uuid"

	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/types"
)

// Status describes how an analysis run ended.
type Status string

const (
	// StatusCompleted means every stage ran without degradation.
	StatusCompleted Status = "completed"

	// StatusPartial means the run finished but one or more stages fell back
	// to degraded output; the warnings list says which.
	StatusPartial Status = "partial"

	// StatusFailed means the run aborted before producing mappings.
	StatusFailed Status = "failed"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage      types.Stage `json:"stage"`
	DurationMS int64       `json:"duration_ms"`
}

// Summary aggregates the final mappings for display.
type Summary struct {
	// TechniquesFound is the number of mappings that passed the threshold.
	TechniquesFound int `json:"techniques_found"`

	// AverageConfidence is the mean confidence across the mappings.
	AverageConfidence float64 `json:"average_confidence"`

	// HighConfidenceCount is how many mappings scored at or above the
	// high-confidence floor.
	HighConfidenceCount int `json:"high_confidence_count"`
}

// Summarize computes summary statistics over a set of mappings.
func Summarize(mappings types.Mappings) Summary {
	return Summary{
		TechniquesFound:     len(mappings),
		AverageConfidence:   mappings.AverageConfidence(),
		HighConfidenceCount: mappings.HighConfidenceCount(),
	}
}

// Report is the complete output of one analysis run: every stage's output,
// timings, token usage, and a quality assessment. Mappings holds ALL kept
// mappings; display capping happens at the API boundary via TopMappings.
type Report struct {
	// RunID uniquely identifies the analysis run.
	RunID string `json:"run_id"`

	// Rule echoes the analyzed rule text.
	Rule string `json:"rule"`

	// Provider and Model identify the language model that produced the run.
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// ConfidenceThreshold is the filter the scoring stage applied.
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// IoCs holds the indicators extracted from the rule.
	IoCs types.IoCSet `json:"iocs"`

	// Snippets holds the retrieved context, one entry per searched indicator.
	Snippets types.Snippets `json:"context_snippets,omitempty"`

	// Description is the natural-language translation of the rule.
	Description string `json:"description"`

	// DataSource is the ATT&CK data source identified for the rule.
	DataSource string `json:"data_source"`

	// Candidates holds the techniques proposed before relevance scoring.
	Candidates []types.TechniqueCandidate `json:"candidates,omitempty"`

	// Mappings holds every technique that passed the confidence threshold,
	// ordered by descending confidence.
	Mappings types.Mappings `json:"mappings"`

	// Summary aggregates the mappings.
	Summary Summary `json:"summary"`

	// Assessment grades the run's output quality.
	Assessment Assessment `json:"assessment"`

	// Warnings lists stage degradations encountered during the run.
	Warnings []string `json:"warnings,omitempty"`

	// Status reports how the run ended.
	Status Status `json:"status"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// StageTimings records per-stage wall time in execution order.
	StageTimings []StageTiming `json:"stage_timings"`

	// TokenUsage breaks down token consumption by stage.
	TokenUsage llm.Snapshot `json:"token_usage"`
}

// NewReport starts a report for one analysis run.
func NewReport(rule, provider, model string, threshold float64) *Report {
	return &Report{
		RunID:               uuid.New().String(),
		Rule:                rule,
		Provider:            provider,
		Model:               model,
		ConfidenceThreshold: threshold,
		StartedAt:           time.Now().UTC(),
	}
}

// RecordStage appends the wall time of one completed stage.
func (r *Report) RecordStage(stage types.Stage, d time.Duration) {
	r.StageTimings = append(r.StageTimings, StageTiming{
		Stage:      stage,
		DurationMS: d.Milliseconds(),
	})
}

// AddWarning records a stage degradation.
func (r *Report) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Finish stamps the completion time, sets the status, and computes the
// summary from the mappings.
func (r *Report) Finish(status Status) {
	r.CompletedAt = time.Now().UTC()
	r.Status = status
	r.Summary = Summarize(r.Mappings)
}

// Duration returns the total run time.
func (r *Report) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// TotalFound returns how many mappings passed the threshold, before any
// display capping.
func (r *Report) TotalFound() int {
	return len(r.Mappings)
}

// TopMappings returns at most n mappings from the front of the sorted list.
// A non-positive n returns all mappings.
func (r *Report) TopMappings(n int) types.Mappings {
	return r.Mappings.Top(n)
}
