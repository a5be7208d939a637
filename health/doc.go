// Package health provides the component checks behind the server's healthz
// endpoint.
//
// Three checks cover the analyzer's dependencies:
//
//   - CredentialCheck: whether a server-side provider credential is set
//   - EndpointCheck: TCP connectivity to the web-search endpoint
//   - CacheCheck: snippet cache reachability (pings backends that hold
//     connections)
//
// Combine aggregates per-component statuses into one process-level status.
// Any unhealthy check makes the result unhealthy; otherwise any degraded
// check makes it degraded; otherwise the result is healthy. A degraded
// process still serves analysis requests: a missing server-side credential
// only means each request must carry its own key.
package health
