// Package telemetry records OpenTelemetry traces and metrics for analysis
// runs.
//
// Each run opens a root span with one child span per pipeline stage, and
// four instruments capture stage durations, completion requests, context
// lookups, and per-technique confidence scores. Everything degrades
// gracefully: a Telemetry built without providers, or obtained from Nop,
// records nothing and never fails, so the pipeline carries no conditional
// instrumentation code.
//
// Deployments without a trace collector can still see span timings through
// NewTracerProvider, which exports completed spans to the structured log.
package telemetry
