package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ram-framework/ram/types"
)

// defaultKeyPrefix namespaces snippet keys so the cache can share a Redis
// database with other applications.
const defaultKeyPrefix = "ram:snippet:"

// RedisOptions configures the Redis-backed cache.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration

	// TTL is the snippet expiry; non-positive selects DefaultTTL.
	TTL time.Duration

	// KeyPrefix namespaces the cache keys; empty selects the default.
	KeyPrefix string
}

// Redis implements SnippetCache using go-redis/v9.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis-backed snippet cache and verifies the connection.
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{
		client: client,
		ttl:    opts.TTL,
		prefix: opts.KeyPrefix,
	}, nil
}

// Get returns the snippet cached for a query.
func (c *Redis) Get(ctx context.Context, query string) (types.ContextSnippet, error) {
	if query == "" {
		return types.ContextSnippet{}, ErrInvalidKey
	}

	data, err := c.client.Get(ctx, c.prefix+query).Result()
	if err != nil {
		if err == redis.Nil {
			return types.ContextSnippet{}, ErrNotFound
		}
		return types.ContextSnippet{}, fmt.Errorf("failed to get snippet for %q: %w", query, err)
	}

	var snippet types.ContextSnippet
	if err := json.Unmarshal([]byte(data), &snippet); err != nil {
		return types.ContextSnippet{}, fmt.Errorf("failed to unmarshal snippet: %w", err)
	}

	return snippet, nil
}

// Set stores a snippet under a query with the configured TTL.
func (c *Redis) Set(ctx context.Context, query string, snippet types.ContextSnippet) error {
	if query == "" {
		return ErrInvalidKey
	}

	data, err := json.Marshal(snippet)
	if err != nil {
		return fmt.Errorf("failed to marshal snippet: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+query, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snippet for %q: %w", query, err)
	}

	return nil
}

// Ping verifies the Redis connection is alive.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}
