package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ *MemoryCache }

func (f failingStore) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("remote down")
}

func TestLayeredCache_WriteThroughAndReadBack(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, time.Minute)
	defer lc.Close()

	require.NoError(t, lc.Set(ctx, "p", holding{Cash: 5}, 0))

	var fromRemote holding
	require.NoError(t, remote.Get(ctx, "p", &fromRemote))
	assert.Equal(t, 5.0, fromRemote.Cash)

	var got holding
	require.NoError(t, lc.Get(ctx, "p", &got))
	assert.Equal(t, 5.0, got.Cash)
}

func TestLayeredCache_FillsL1FromRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, time.Minute)
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "k", "remote", 0))

	var s string
	require.NoError(t, lc.Get(ctx, "k", &s))
	assert.Equal(t, "remote", s)

	require.NoError(t, remote.Delete(ctx, "k"))
	require.NoError(t, lc.Get(ctx, "k", &s))
	assert.Equal(t, "remote", s)

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestLayeredCache_RemoteFailureNotCached(t *testing.T) {
	ctx := context.Background()
	lc := NewLayeredCache(failingStore{NewMemoryCache()}, time.Minute)
	defer lc.Close()

	assert.Error(t, lc.Set(ctx, "k", "v", 0))
	var s string
	assert.ErrorIs(t, lc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestLayeredCache_LocalTTLNeverOutlivesRemote(t *testing.T) {
	lc := &LayeredCache{l1TTL: time.Minute}
	assert.Equal(t, time.Second, lc.localTTL(time.Second))
	assert.Equal(t, time.Minute, lc.localTTL(time.Hour))
	assert.Equal(t, time.Minute, lc.localTTL(0))

	lc.l1TTL = 0
	assert.Equal(t, time.Hour, lc.localTTL(time.Hour))
}
