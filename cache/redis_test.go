package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCache creates a miniredis instance and returns a connected Redis cache.
func setupTestCache(t *testing.T, opts RedisOptions) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	opts.URL = fmt.Sprintf("redis://%s", mr.Addr())

	c, err := NewRedis(opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		mr.Close()
	})

	return c, mr
}

func TestNewRedis(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)
		defer mr.Close()

		c, err := NewRedis(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
		require.NoError(t, err)
		require.NotNil(t, c)
		defer c.Close()
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedis(RedisOptions{
			URL:            "redis://localhost:1",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedis(RedisOptions{URL: "invalid://url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}

func TestRedis_SetGet(t *testing.T) {
	c, mr := setupTestCache(t, RedisOptions{})
	ctx := context.Background()
	snippet := testSnippet()

	require.NoError(t, c.Set(ctx, snippet.Query, snippet))

	// Stored under the namespaced key.
	assert.True(t, mr.Exists(defaultKeyPrefix+snippet.Query))

	got, err := c.Get(ctx, snippet.Query)
	require.NoError(t, err)
	assert.Equal(t, snippet, got)
}

func TestRedis_Miss(t *testing.T) {
	c, _ := setupTestCache(t, RedisOptions{})

	_, err := c.Get(context.Background(), "never stored")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_EmptyKey(t *testing.T) {
	c, _ := setupTestCache(t, RedisOptions{})
	ctx := context.Background()

	_, err := c.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = c.Set(ctx, "", testSnippet())
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRedis_TTLExpiry(t *testing.T) {
	c, mr := setupTestCache(t, RedisOptions{TTL: time.Minute})
	ctx := context.Background()
	snippet := testSnippet()

	require.NoError(t, c.Set(ctx, snippet.Query, snippet))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, snippet.Query)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_CustomPrefix(t *testing.T) {
	c, mr := setupTestCache(t, RedisOptions{KeyPrefix: "custom:"})
	ctx := context.Background()
	snippet := testSnippet()

	require.NoError(t, c.Set(ctx, snippet.Query, snippet))
	assert.True(t, mr.Exists("custom:"+snippet.Query))
}

func TestRedis_CorruptEntry(t *testing.T) {
	c, mr := setupTestCache(t, RedisOptions{})

	require.NoError(t, mr.Set(defaultKeyPrefix+"bad", "{not json"))

	_, err := c.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
