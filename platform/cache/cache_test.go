package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/platform/cache"
)

type payload struct {
	Count int `json:"count"`
}

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCache(client, "crm:"), mr
}

func TestGetOrLoadCachesResult(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (payload, error) {
		calls++
		return payload{Count: calls}, nil
	}

	first, err := cache.GetOrLoad(ctx, c, "dash", time.Minute, load)
	require.NoError(t, err)
	second, err := cache.GetOrLoad(ctx, c, "dash", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("crm:dash"))

	mr.FastForward(2 * time.Minute)
	third, err := cache.GetOrLoad(ctx, c, "dash", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Count)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c, mr := newCache(t)

	_, err := cache.GetOrLoad(context.Background(), c, "bad", time.Minute, func(context.Context) (payload, error) {
		return payload{}, errors.New("db down")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("crm:bad"))
}

func TestDeleteRemovesKeys(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Delete(ctx, "a"))
	assert.False(t, mr.Exists("crm:a"))

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNopNeverHits(t *testing.T) {
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := cache.GetOrLoad(context.Background(), cache.Nop{}, "k", time.Minute, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
