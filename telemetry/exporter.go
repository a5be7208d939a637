package telemetry

import (
	"context"
	"encoding/hex"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogSpanExporter implements the OpenTelemetry SpanExporter interface and
// writes completed spans to the structured log. It keeps stage timings
// visible in deployments that run without a trace collector.
//
// Export never fails: problems are logged and nil is returned so the trace
// pipeline keeps running.
type LogSpanExporter struct {
	logger *slog.Logger
}

// NewLogSpanExporter creates a LogSpanExporter that writes through logger.
// The returned exporter should be registered with the OpenTelemetry SDK's
// TracerProvider.
func NewLogSpanExporter(logger *slog.Logger) *LogSpanExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpanExporter{logger: logger}
}

// ExportSpans logs a batch of completed spans. Spans that ended with an
// error status log at warn level, everything else at debug.
//
// The method is called automatically by the OpenTelemetry SDK when spans
// complete.
func (e *LogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		sc := span.SpanContext()
		traceID := sc.TraceID()
		spanID := sc.SpanID()

		attrs := []any{
			"span", span.Name(),
			"trace_id", hex.EncodeToString(traceID[:]),
			"span_id", hex.EncodeToString(spanID[:]),
			"duration_ms", span.EndTime().Sub(span.StartTime()).Milliseconds(),
		}
		for _, attr := range span.Attributes() {
			attrs = append(attrs, string(attr.Key), attr.Value.Emit())
		}

		status := span.Status()
		if status.Code == codes.Error {
			attrs = append(attrs, "error", status.Description)
			e.logger.Warn("span completed", attrs...)
			continue
		}
		e.logger.Debug("span completed", attrs...)
	}
	return nil
}

// Shutdown performs cleanup when the exporter is being shut down. The
// logger needs no teardown, so this is a no-op.
func (e *LogSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}
