package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ram-framework/ram/types"
)

// Common errors returned by cache operations.
var (
	// ErrNotFound is returned when no snippet is cached for a query.
	ErrNotFound = errors.New("cache: snippet not found")

	// ErrInvalidKey is returned when a query key is empty.
	ErrInvalidKey = errors.New("cache: invalid key")
)

// DefaultTTL is how long cached snippets stay valid when the caller does not
// configure a TTL.
const DefaultTTL = time.Hour

// SnippetCache stores retrieved context snippets keyed by search query, so
// repeated analyses of similar rules skip redundant lookups.
type SnippetCache interface {
	// Get returns the snippet cached for a query.
	// Returns ErrNotFound when the query has no live entry.
	Get(ctx context.Context, query string) (types.ContextSnippet, error)

	// Set stores a snippet under a query with the configured TTL.
	// Returns ErrInvalidKey if the query is empty.
	Set(ctx context.Context, query string, snippet types.ContextSnippet) error

	// Close releases any resources held by the cache.
	Close() error
}

// Memory is an in-process SnippetCache with per-entry expiry.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry

	// now is overridable in tests.
	now func() time.Time
}

type memoryEntry struct {
	snippet   types.ContextSnippet
	expiresAt time.Time
}

// NewMemory creates an in-memory cache. A non-positive ttl selects
// DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the snippet cached for a query. Expired entries are removed
// on access.
func (m *Memory) Get(_ context.Context, query string) (types.ContextSnippet, error) {
	if query == "" {
		return types.ContextSnippet{}, ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[query]
	if !ok {
		return types.ContextSnippet{}, ErrNotFound
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, query)
		return types.ContextSnippet{}, ErrNotFound
	}

	return entry.snippet, nil
}

// Set stores a snippet under a query.
func (m *Memory) Set(_ context.Context, query string, snippet types.ContextSnippet) error {
	if query == "" {
		return ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[query] = memoryEntry{
		snippet:   snippet,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

// Len reports the number of live entries, counting expired ones out.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	now := m.now()
	for _, entry := range m.entries {
		if !now.After(entry.expiresAt) {
			n++
		}
	}
	return n
}

// Close implements SnippetCache; the in-memory cache holds no resources.
func (m *Memory) Close() error {
	return nil
}

// Nop is a disabled cache: every lookup misses and stores are dropped.
type Nop struct{}

// Get always returns ErrNotFound.
func (Nop) Get(_ context.Context, _ string) (types.ContextSnippet, error) {
	return types.ContextSnippet{}, ErrNotFound
}

// Set drops the snippet.
func (Nop) Set(_ context.Context, _ string, _ types.ContextSnippet) error {
	return nil
}

// Close implements SnippetCache.
func (Nop) Close() error {
	return nil
}
