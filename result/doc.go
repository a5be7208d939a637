// Package result defines the analysis report and grades its quality.
//
// A Report collects everything one run produced: extracted indicators,
// retrieved context, the natural-language description, the identified data
// source, candidate techniques, and the final confidence-filtered mappings,
// along with per-stage timings, token usage, and degradation warnings. The
// report always carries the complete mapping list; display capping is the
// API layer's concern and goes through TopMappings.
//
// An Assessor grades finished reports with pluggable rules, downgrading
// quality when stages degraded or nothing passed the threshold, and attaches
// suggestions the analyst can act on.
package result
