package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ram-framework/ram/types"
)

// instrumentationName identifies the instrumentation scope for tracers and
// meters created by this package.
const instrumentationName = "github.com/ram-framework/ram"

// instruments holds the OpenTelemetry metric instruments for the analysis
// pipeline. They are created once in New and reused for every run.
type instruments struct {
	// stageDuration records per-stage wall time in milliseconds.
	stageDuration metric.Float64Histogram

	// llmCalls increments for each completion request sent to a provider.
	llmCalls metric.Int64Counter

	// searchCalls increments for each context lookup, cached or live.
	searchCalls metric.Int64Counter

	// confidence records the relevance score of each scored technique.
	confidence metric.Float64Histogram
}

// Telemetry records traces and metrics for analysis runs. All methods
// degrade gracefully: a nil Telemetry, or one built without providers,
// records nothing and never fails.
type Telemetry struct {
	tracer      trace.Tracer
	meter       metric.Meter
	instruments *instruments
}

// Config selects the OpenTelemetry providers to record through. Nil
// providers disable the corresponding signal.
type Config struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// New builds a Telemetry from the given providers and creates the metric
// instruments. It returns an error only when instrument creation fails.
func New(cfg Config) (*Telemetry, error) {
	t := &Telemetry{}

	if cfg.TracerProvider != nil {
		t.tracer = cfg.TracerProvider.Tracer(instrumentationName)
	}

	if cfg.MeterProvider != nil {
		t.meter = cfg.MeterProvider.Meter(instrumentationName)

		inst, err := newInstruments(t.meter)
		if err != nil {
			return nil, err
		}
		t.instruments = inst
	}

	return t, nil
}

// Nop returns a Telemetry that records nothing.
func Nop() *Telemetry {
	return &Telemetry{}
}

// newInstruments creates all metric instruments on the given meter.
func newInstruments(meter metric.Meter) (*instruments, error) {
	inst := &instruments{}
	var err error

	inst.stageDuration, err = meter.Float64Histogram(
		"ram.stage.duration",
		metric.WithDescription("Pipeline stage duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stage duration histogram: %w", err)
	}

	inst.llmCalls, err = meter.Int64Counter(
		"ram.llm.calls",
		metric.WithDescription("Number of completion requests sent to the model provider"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm call counter: %w", err)
	}

	inst.searchCalls, err = meter.Int64Counter(
		"ram.search.calls",
		metric.WithDescription("Number of context snippet lookups, cached and live"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search call counter: %w", err)
	}

	inst.confidence, err = meter.Float64Histogram(
		"ram.technique.confidence",
		metric.WithDescription("Relevance confidence per scored technique from 0.0 to 1.0"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create confidence histogram: %w", err)
	}

	return inst, nil
}

// StartRun opens the root span for one analysis run. The returned function
// ends the span and must be called exactly once; pass the run error, or nil
// on success.
func (t *Telemetry) StartRun(ctx context.Context, runID string) (context.Context, func(error)) {
	if t == nil || t.tracer == nil {
		return ctx, func(error) {}
	}

	ctx, span := t.tracer.Start(ctx, "pipeline.run")
	span.SetAttributes(attribute.String("run.id", runID))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "analysis complete")
		}
		span.End()
	}
}

// StartStage opens a span for one pipeline stage and returns a function
// that ends it. Stage duration is recorded when the span ends.
func (t *Telemetry) StartStage(ctx context.Context, stage types.Stage) (context.Context, func(error)) {
	if t == nil || t.tracer == nil {
		return ctx, func(error) {}
	}

	start := time.Now()
	ctx, span := t.tracer.Start(ctx, "stage."+stage.String())
	span.SetAttributes(
		attribute.String("stage", stage.String()),
		attribute.Int("stage.number", stage.Number()),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "stage complete")
		}
		span.End()

		if t.instruments != nil && t.instruments.stageDuration != nil {
			t.instruments.stageDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
				metric.WithAttributes(attribute.String("stage", stage.String())))
		}
	}
}

// RecordLLMCall counts one completion request and attaches a span event
// carrying the token usage to the active stage span.
func (t *Telemetry) RecordLLMCall(ctx context.Context, stage types.Stage, totalTokens int) {
	if t == nil {
		return
	}

	if t.instruments != nil && t.instruments.llmCalls != nil {
		t.instruments.llmCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage.String()),
		))
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("llm.call", trace.WithAttributes(
			attribute.String("stage", stage.String()),
			attribute.Int("llm.total_tokens", totalTokens),
		))
	}
}

// RecordSearchCall counts one context lookup, tagged with whether the
// snippet came from cache.
func (t *Telemetry) RecordSearchCall(ctx context.Context, cacheHit bool) {
	if t == nil {
		return
	}

	if t.instruments != nil && t.instruments.searchCalls != nil {
		t.instruments.searchCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("cache_hit", cacheHit),
		))
	}
}

// RecordConfidence records the relevance score assigned to one candidate
// technique and attaches a span event to the active stage span.
func (t *Telemetry) RecordConfidence(ctx context.Context, techniqueID string, confidence float64) {
	if t == nil {
		return
	}

	if t.instruments != nil && t.instruments.confidence != nil {
		t.instruments.confidence.Record(ctx, confidence, metric.WithAttributes(
			attribute.String("technique.id", techniqueID),
		))
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("technique.scored", trace.WithAttributes(
			attribute.String("technique.id", techniqueID),
			attribute.Float64("confidence", confidence),
		))
	}
}
