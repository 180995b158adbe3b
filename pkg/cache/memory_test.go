package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holding struct {
	Cash   float64        `json:"cash"`
	Shares map[string]int `json:"shares"`
}

func TestMemoryCache_TypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := holding{Cash: 12.5, Shares: map[string]int{"MICX": 3}}
	require.NoError(t, mc.Set(ctx, "u1", in, 0))

	var out holding
	require.NoError(t, mc.Get(ctx, "u1", &out))
	assert.Equal(t, in, out)

	out.Shares["MICX"] = 99
	var again holding
	require.NoError(t, mc.Get(ctx, "u1", &again))
	assert.Equal(t, 3, again.Shares["MICX"])
}

func TestMemoryCache_MissAndDelete(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "nope", &s), ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "k", "v", 0))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mc.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	require.NoError(t, mc.Delete(ctx, "k"))
	ok, _ = mc.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	time.Sleep(time.Millisecond)

	var n int
	require.NoError(t, mc.Get(ctx, "a", &n))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &n), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &n))
}

func TestMemoryCache_UnboundedWhenMaxSizeZero(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(0))
	defer mc.Close()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, mc.Set(ctx, k, k, 0))
	}
	assert.Equal(t, 4, mc.Len())
	require.NoError(t, mc.Close())
	require.NoError(t, mc.Close())
}
