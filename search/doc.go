// Package search retrieves contextual snippets for indicators of compromise
// from the DuckDuckGo Instant Answer API.
//
// The client is deliberately forgiving: lookups that fail or come back empty
// degrade to placeholder snippets instead of erroring, because missing
// context should never abort an analysis run. Callers that need the error
// use Lookup directly.
package search
