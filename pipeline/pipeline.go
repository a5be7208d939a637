package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ram-framework/ram/cache"
	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/prompt"
	"github.com/ram-framework/ram/result"
	"github.com/ram-framework/ram/search"
	"github.com/ram-framework/ram/telemetry"
	"github.com/ram-framework/ram/types"
)

const (
	// DefaultThreshold is the minimum confidence a scored technique must
	// reach to be kept, when the caller does not override it.
	DefaultThreshold = 0.7

	// maxValuesPerCategory caps how many indicator values per category feed
	// the search stage, keeping the number of external calls bounded.
	maxValuesPerCategory = 3

	// fastSearchDelay and defaultSearchDelay space consecutive search
	// calls. Newer model families tolerate faster request rates.
	fastSearchDelay    = 300 * time.Millisecond
	defaultSearchDelay = 500 * time.Millisecond
)

// SleepFunc pauses between consecutive search calls. Tests inject a fake to
// assert delay placement without waiting for real time.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ProgressFunc receives stage transitions as the pipeline enters each stage.
// The message is the user-facing "Step N/6" text for the stage.
type ProgressFunc func(stage types.Stage, message string)

// Config wires one analysis pipeline. Provider is required; everything else
// has a working default.
type Config struct {
	// Provider executes the completion requests for all model stages.
	Provider llm.Provider

	// Search retrieves context snippets. Nil constructs a default client.
	Search *search.Client

	// Cache stores snippets across runs. Nil disables caching.
	Cache cache.SnippetCache

	// Threshold is the minimum confidence for keeping a scored technique.
	// Zero means DefaultThreshold.
	Threshold float64

	// CandidateCount is how many techniques the recommendation stage asks
	// the model for. Zero means prompt.DefaultCandidateCount.
	CandidateCount int

	// Telemetry records spans and metrics. Nil disables instrumentation.
	Telemetry *telemetry.Telemetry

	// Logger receives run and stage logs. Nil uses slog.Default().
	Logger *slog.Logger

	// Progress, when set, is called as each stage starts.
	Progress ProgressFunc

	// Sleep overrides the inter-search pause. Nil sleeps for real.
	Sleep SleepFunc
}

// Pipeline chains the six analysis stages over a single provider. Build one
// per analysis run; the shared dependencies it holds (search client, cache,
// telemetry) are safe for concurrent use across pipelines.
type Pipeline struct {
	provider   llm.Provider
	search     *search.Client
	cache      cache.SnippetCache
	threshold  float64
	candidates int
	telemetry  *telemetry.Telemetry
	logger     *slog.Logger
	progress   ProgressFunc
	sleep      SleepFunc
	assessor   *result.Assessor
}

// New builds a Pipeline from the config, applying defaults for every
// optional field.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("pipeline: provider is required")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("pipeline: confidence threshold %v out of range [0,1]", cfg.Threshold)
	}

	p := &Pipeline{
		provider:   cfg.Provider,
		search:     cfg.Search,
		cache:      cfg.Cache,
		threshold:  cfg.Threshold,
		candidates: cfg.CandidateCount,
		telemetry:  cfg.Telemetry,
		logger:     cfg.Logger,
		progress:   cfg.Progress,
		sleep:      cfg.Sleep,
		assessor:   result.NewAssessor(),
	}

	if p.search == nil {
		p.search = search.NewClient(search.Config{})
	}
	if p.cache == nil {
		p.cache = cache.Nop{}
	}
	if p.threshold == 0 {
		p.threshold = DefaultThreshold
	}
	if p.candidates <= 0 {
		p.candidates = prompt.DefaultCandidateCount
	}
	if p.telemetry == nil {
		p.telemetry = telemetry.Nop()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}

	return p, nil
}

// Run executes the six stages in order, exactly once each, and returns the
// report. Stage degradations (an unparseable extraction, a failed
// translation, a candidate that would not score) downgrade the report
// instead of failing the run; only cancellation and pre-flight validation
// abort. An aborted run returns the partial report alongside the error.
func (p *Pipeline) Run(ctx context.Context, rule types.Rule) (*result.Report, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	report := result.NewReport(rule.Text, p.provider.Name(), p.provider.Model(), p.threshold)
	r := &run{
		pipe:    p,
		rule:    rule,
		report:  report,
		tracker: llm.NewTokenTracker(),
		logger:  p.logger.With("run_id", report.RunID),
	}

	r.logger.Info("analysis run started",
		"provider", report.Provider,
		"model", report.Model,
		"threshold", p.threshold)

	ctx, endRun := p.telemetry.StartRun(ctx, report.RunID)
	err := r.execute(ctx)
	endRun(err)

	report.TokenUsage = r.tracker.Snapshot()

	if err != nil {
		report.Finish(result.StatusFailed)
		r.logger.Error("analysis run failed", "error", err)
		return report, err
	}

	status := result.StatusCompleted
	if len(report.Warnings) > 0 {
		status = result.StatusPartial
	}
	report.Finish(status)
	report.Assessment = p.assessor.Assess(report)

	r.logger.Info("analysis run finished",
		"status", string(report.Status),
		"techniques", report.TotalFound(),
		"duration_ms", report.Duration().Milliseconds(),
		"total_tokens", report.TokenUsage.Total.TotalTokens)

	return report, nil
}

// searchDelay returns the pause between consecutive search calls for the
// run's model.
func (p *Pipeline) searchDelay() time.Duration {
	if strings.Contains(p.provider.Model(), "2.0") {
		return fastSearchDelay
	}
	return defaultSearchDelay
}

// notify delivers a stage transition to the progress callback.
func (p *Pipeline) notify(stage types.Stage) {
	if p.progress != nil {
		p.progress(stage, stage.StatusMessage())
	}
}

// sleepContext pauses for d or until the context is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
