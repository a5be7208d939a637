// Package cache stores retrieved context snippets keyed by search query.
//
// The analysis pipeline consults the cache before hitting the search API,
// so repeated analyses of similar rules skip redundant network lookups and
// their rate-limit delays. Two backends are provided: an in-process map
// with per-entry expiry (Memory) and a Redis-backed cache (Redis) for
// deployments that share snippets across instances. Nop disables caching.
package cache
