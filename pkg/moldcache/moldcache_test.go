package moldcache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := New(Config{L1Size: 2, TTL: 0}, client, nil)
	require.NoError(t, err)
	return c, mr
}

func TestCache_Resolve_CachesAcrossL1AndL2(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := Key{MoldEquivalent: "network.port", Version: "1.0"}

	calls := 0
	resolve := func() (string, error) {
		calls++
		return "443", nil
	}

	v, err := c.Resolve(ctx, key, resolve)
	require.NoError(t, err)
	assert.Equal(t, "443", v)
	assert.Equal(t, 1, calls)

	// Evict from L1 only; L2 (miniredis) should still serve it.
	c.l1.Remove(key)
	v, err = c.Resolve(ctx, key, resolve)
	require.NoError(t, err)
	assert.Equal(t, "443", v)
	assert.Equal(t, 1, calls, "resolve should not be called again on an L2 hit")
}

func TestCache_Invalidate_ForcesResolve(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := Key{MoldEquivalent: "network.port", Version: "1.0"}

	calls := 0
	resolve := func() (string, error) {
		calls++
		return "443", nil
	}

	_, err := c.Resolve(ctx, key, resolve)
	require.NoError(t, err)
	c.Invalidate(ctx, key)

	_, err = c.Resolve(ctx, key, resolve)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_NilRedis_IsL1Only(t *testing.T) {
	c, err := New(Config{L1Size: 4}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	key := Key{MoldEquivalent: "x", Version: "1.0"}
	calls := 0
	v, err := c.Resolve(ctx, key, func() (string, error) { calls++; return "v", nil })
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	v, err = c.Resolve(ctx, key, func() (string, error) { calls++; return "v", nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
