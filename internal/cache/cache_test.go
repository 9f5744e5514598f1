package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(16, time.Hour)

	require.NoError(t, m.Set(ctx, "a", "1", 20*time.Millisecond))
	require.NoError(t, m.Set(ctx, "b", "2", 0))

	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	time.Sleep(40 * time.Millisecond)
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok)

	_, ok, _ = m.Get(ctx, "b")
	assert.True(t, ok)
}

func TestMemoryIsBounded(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(100, time.Hour)

	for i := range 10_000 {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("q%d", i), "v", 0))
	}
	assert.Equal(t, 100, m.Len())

	_, ok, _ := m.Get(ctx, "q0")
	assert.False(t, ok, "oldest entry evicted")
	_, ok, _ = m.Get(ctx, "q9999")
	assert.True(t, ok)
}

func TestMemorySweepsExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 50*time.Millisecond)

	for i := range 1000 {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("q%d", i), "v", 0))
	}
	require.Eventually(t, func() bool { return m.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "jukebox:")
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(ctx, "q")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "q", "value", time.Minute))
	assert.True(t, mr.Exists("jukebox:q"))

	v, ok, err := c.Get(ctx, "q")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "q")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewPicksBackend(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, "", "p:", time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	mr := miniredis.RunT(t)
	c, err = New(ctx, "redis://"+mr.Addr()+"/0", "p:", time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, c)
	require.NoError(t, c.Close())

	_, err = New(ctx, "::bad::", "p:", time.Minute)
	assert.Error(t, err)
}
