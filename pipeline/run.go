package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ram-framework/ram/datasource"
	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/result"
	"github.com/ram-framework/ram/types"
)

// run holds the per-run state of one pipeline execution. The Pipeline
// carries only shared dependencies, so concurrent runs never interfere.
type run struct {
	pipe    *Pipeline
	rule    types.Rule
	report  *result.Report
	tracker *llm.DefaultTokenTracker
	logger  *slog.Logger
}

// execute drives the six stages in their fixed order. Each stage's output
// lands on the report as soon as the stage completes, so an aborted run
// still reports everything it produced.
func (r *run) execute(ctx context.Context) error {
	var (
		iocs        types.IoCSet
		snippets    types.Snippets
		description string
		dataSource  string
		candidates  []types.TechniqueCandidate
		mappings    types.Mappings
	)

	err := r.stage(ctx, types.StageExtractIoCs, func(ctx context.Context) error {
		var err error
		iocs, err = r.extractIoCs(ctx)
		return err
	})
	if err != nil {
		return err
	}
	r.report.IoCs = iocs

	err = r.stage(ctx, types.StageRetrieveContext, func(ctx context.Context) error {
		var err error
		snippets, err = r.retrieveContext(ctx, iocs)
		return err
	})
	if err != nil {
		return err
	}
	r.report.Snippets = snippets

	err = r.stage(ctx, types.StageTranslate, func(ctx context.Context) error {
		var err error
		description, err = r.translate(ctx, iocs, snippets)
		return err
	})
	if err != nil {
		return err
	}
	r.report.Description = description

	err = r.stage(ctx, types.StageIdentifySource, func(context.Context) error {
		dataSource = datasource.Identify(description)
		return nil
	})
	if err != nil {
		return err
	}
	r.report.DataSource = dataSource

	err = r.stage(ctx, types.StageRecommend, func(ctx context.Context) error {
		var err error
		candidates, err = r.recommend(ctx, description)
		return err
	})
	if err != nil {
		return err
	}
	r.report.Candidates = candidates

	err = r.stage(ctx, types.StageScore, func(ctx context.Context) error {
		var err error
		mappings, err = r.score(ctx, description, candidates)
		return err
	})
	if err != nil {
		return err
	}
	r.report.Mappings = mappings

	return nil
}

// stage runs one pipeline stage: cancellation check, progress notification,
// telemetry span, and timing capture around fn.
func (r *run) stage(ctx context.Context, stage types.Stage, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analysis canceled before %s: %w", stage, err)
	}

	r.pipe.notify(stage)
	r.logger.Debug("stage started", "stage", stage.String(), "step", stage.Number())

	stageCtx, end := r.pipe.telemetry.StartStage(ctx, stage)
	start := time.Now()
	err := fn(stageCtx)
	r.report.RecordStage(stage, time.Since(start))
	end(err)

	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	r.logger.Debug("stage finished",
		"stage", stage.String(),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// complete sends one prompt to the provider and books its token usage
// against the stage.
func (r *run) complete(ctx context.Context, stage types.Stage, promptText string, opts ...llm.CompletionOption) (*llm.CompletionResponse, error) {
	req := llm.NewCompletionRequest([]llm.Message{llm.UserMessage(promptText)}, opts...)

	resp, err := r.pipe.provider.Complete(ctx, req)
	if err != nil {
		r.pipe.telemetry.RecordLLMCall(ctx, stage, 0)
		return nil, err
	}

	r.tracker.Add(stage.String(), resp.Usage)
	r.pipe.telemetry.RecordLLMCall(ctx, stage, resp.Usage.TotalTokens)
	return resp, nil
}

// degrade records a stage fallback: the warning lands on the report, the
// error detail stays in the log.
func (r *run) degrade(stage types.Stage, warning string, err error) {
	r.logger.Warn(warning, "stage", stage.String(), "error", err)
	r.report.AddWarning(warning)
}

// skipCandidate logs a failed candidate; the remaining candidates still get
// scored.
func (r *run) skipCandidate(candidate types.TechniqueCandidate, err error) {
	r.logger.Warn("technique scoring failed, skipping candidate",
		"technique", candidate.ID,
		"error", err)
	r.report.AddWarning(fmt.Sprintf("Error processing technique %s", candidate.ID))
}

// isCanceled reports whether err stems from context cancellation, the one
// failure class that aborts a run instead of degrading a stage.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
