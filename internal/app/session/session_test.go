package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puskata/library-service/internal/app/domain/user"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })

	s := Session{
		Token:     "token-1",
		User:      user.User{ID: 1, Email: "user@puskata.com"},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.User.ID)

	require.NoError(t, store.Delete(ctx, "token-1"))
	_, err = store.Get(ctx, "token-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreExpiresLazily(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })

	require.NoError(t, store.Put(ctx, Session{Token: "t", ExpiresAt: now.Add(time.Minute)}))
	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "t")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.Len())
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	s := Session{
		Token:     "redis-token",
		User:      user.User{ID: 7, Name: "Reader", Role: user.RoleUser},
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, "redis-token")
	require.NoError(t, err)
	assert.Equal(t, "Reader", got.User.Name)

	require.NoError(t, store.Delete(ctx, "redis-token"))
	_, err = store.Get(ctx, "redis-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRejectsExpired(t *testing.T) {
	store := &RedisStore{}
	err := store.Put(context.Background(), Session{Token: "x", ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
}
