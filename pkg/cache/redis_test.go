package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	_, hit, err := c.Get(ctx, "result:a")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "result:a", []byte("payload"), 0))
	assert.True(t, mr.Exists(DefaultRedisPrefix+"result:a"), "key should carry the prefix")

	data, hit, err := c.Get(ctx, "result:a")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, c.Delete(ctx, "result:a"))
	_, hit, err = c.Get(ctx, "result:a")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}
	require.NoError(t, mr.Set("other:key", "kept"))

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, mr.Exists("other:key"), "keys outside the prefix survive")
}

func TestRedisCacheClosed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, _, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrClosed)
}

func TestRedisCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1}),
		WithBackoff(Backoff{Attempts: 2, Delay: time.Millisecond}),
		WithRedisPrefix("test:"),
	)
	defer c.Close()

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
}
