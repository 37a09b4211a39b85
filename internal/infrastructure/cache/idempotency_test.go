package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gcci/certgen/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHashPayload(t *testing.T) {
	a, err := HashPayload(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)
	b, err := HashPayload(map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)
	c, err := HashPayload(map[string]string{"a": "1", "b": "3"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		e, err := store.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, e)
	})

	t.Run("first put wins", func(t *testing.T) {
		stored, err := store.Put(ctx, "k1", &Entry{PayloadHash: "h1", PDF: []byte("a")}, time.Hour)
		require.NoError(t, err)
		assert.True(t, stored)

		stored, err = store.Put(ctx, "k1", &Entry{PayloadHash: "h2"}, time.Hour)
		require.NoError(t, err)
		assert.False(t, stored)

		e, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, "h1", e.PayloadHash)
	})

	t.Run("expired entries are replaced", func(t *testing.T) {
		_, err := store.Put(ctx, "k2", &Entry{PayloadHash: "old"}, time.Minute)
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		e, err := store.Get(ctx, "k2")
		require.NoError(t, err)
		assert.Nil(t, e)

		stored, err := store.Put(ctx, "k2", &Entry{PayloadHash: "new"}, time.Minute)
		require.NoError(t, err)
		assert.True(t, stored)
	})
}

func TestInMemoryIdempotencyStore_MaxItems(t *testing.T) {
	store := NewInMemoryIdempotencyStore(2)
	defer store.Close()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	ctx := context.Background()

	_, _ = store.Put(ctx, "short", &Entry{}, time.Minute)
	_, _ = store.Put(ctx, "long", &Entry{}, time.Hour)
	_, _ = store.Put(ctx, "third", &Entry{}, time.Hour)

	assert.Equal(t, 2, store.Size())
	e, _ := store.Get(ctx, "short")
	assert.Nil(t, e, "entry closest to expiry is evicted")
	e, _ = store.Get(ctx, "third")
	assert.NotNil(t, e)
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore(t *testing.T) {
	store, err := NewIdempotencyStore(config.IdempotencyConfig{Backend: "memory"}, config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)

	_, err = NewIdempotencyStore(config.IdempotencyConfig{Backend: "memcached"}, config.RedisConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewIdempotencyStore(config.IdempotencyConfig{Backend: "redis"}, config.RedisConfig{Host: "127.0.0.1", Port: 1}, zap.NewNop())
	assert.Error(t, err)
}

// TestRedisIdempotencyStore runs against a live Redis when
// CERTGEN_TEST_REDIS_ADDR is set.
func TestRedisIdempotencyStore(t *testing.T) {
	addr := os.Getenv("CERTGEN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CERTGEN_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisIdempotencyStoreWithClient(client, "certgen:test:"+uuid.NewString()+":")
	defer store.Close()
	ctx := context.Background()

	e, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, e)

	stored, err := store.Put(ctx, "k", &Entry{PayloadHash: "h", PDF: []byte("%PDF"), Warnings: []string{"w"}}, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = store.Put(ctx, "k", &Entry{PayloadHash: "other"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)

	e, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, []byte("%PDF"), e.PDF)
	assert.Equal(t, []string{"w"}, e.Warnings)
}
