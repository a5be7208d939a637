// Package web serves the analyzer over HTTP.
//
// The server exposes three surfaces:
//
//   - A JSON API: GET /healthz, GET /api/models, GET /api/examples, and
//     POST /api/analyze, which runs a full analysis and returns the report
//     with its mapping list capped for display.
//   - A WebSocket endpoint, GET /ws/analyze, which accepts the same request
//     shape and streams one progress event per pipeline stage before the
//     final report, so the UI can show live step-by-step status.
//   - The single-page UI at /, embedded into the binary.
//
// Error responses carry the analysis error kind and a user-facing message;
// credential failures map to 401, input validation to 400, and provider
// rate limiting to 429.
//
//	analyzer, _ := ram.New(ram.WithAPIKey(key))
//	server, err := web.New(web.Config{Addr: ":8080", Analyzer: analyzer})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
package web
