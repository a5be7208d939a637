// Package ram maps SIEM detection rules onto MITRE ATT&CK techniques by
// chaining hosted language-model calls with public web-search context.
//
// RAM (Rule-ATT&CK Mapper) treats the rule text as opaque: nothing in this
// module parses SIEM syntax or encodes ATT&CK matching logic. The analysis is
// a six-stage pipeline around a hosted model:
//
//  1. Indicator extraction - the model pulls indicators of compromise
//     (processes, files, IPs, registry keys, ...) out of the rule text.
//  2. Context retrieval - a web-search lookup fetches a threat-context
//     snippet per extracted indicator.
//  3. Translation - the model describes what the rule detects in prose.
//  4. Data-source identification - a fixed keyword table maps the
//     description onto an ATT&CK data source.
//  5. Technique recommendation - the model proposes candidate techniques.
//  6. Relevance scoring - the model scores each candidate; results are
//     filtered by a confidence threshold and sorted by descending score.
//
// # Getting Started
//
// Construct an Analyzer and submit rules to it:
//
//	analyzer, err := ram.New(
//	    ram.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    ram.WithConfidenceThreshold(0.7),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer analyzer.Close()
//
//	report, err := analyzer.Analyze(ctx, ram.Request{Rule: ruleText})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range report.TopMappings(analyzer.MaxDisplay()) {
//	    fmt.Printf("%s %s (%.2f)\n", m.TechniqueID, m.Name, m.Confidence)
//	}
//
// # Providers
//
// Two hosted providers are supported: Google Gemini (the default) and
// Anthropic Claude. The llm package carries the model catalog; unknown model
// requests resolve to a per-provider fallback model rather than failing.
// Credentials are validated locally before any network call, so a missing or
// malformed API key surfaces as an authentication error without touching the
// provider.
//
// # Degradation
//
// Hosted-model output is unreliable by nature, so individual stages degrade
// instead of failing the run: an unparseable extraction yields an empty
// indicator set, a failed translation falls back to a generic description,
// and a candidate that will not score is skipped. Every degradation is
// recorded as a warning on the report. Only cancellation and pre-flight
// validation abort a run.
//
// # Error Handling
//
// Failures wrap into the structured Error type carrying an operation and a
// kind, compatible with errors.Is and errors.As:
//
//	if err != nil {
//	    if errors.Is(err, ram.ErrMissingAPIKey) {
//	        // prompt for a credential
//	    }
//	}
//
// # Serving
//
// The web package exposes the analyzer over HTTP with a JSON API, a
// WebSocket progress stream, and an embedded browser UI; cmd/ramd is the
// server binary.
//
// # Thread Safety
//
// An Analyzer is safe for concurrent use. Each Analyze call builds an
// independent pipeline; the shared snippet cache is safe for concurrent
// access.
package ram
