package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, prefix string, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), mr.Addr(), "", 0, prefix, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedis_GetSet(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, "twin:answer:", time.Minute)

	_, ok, err := r.Get(ctx, "what databases?")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "what databases?", []byte(`{"text":"PostgreSQL"}`)))
	v, ok, err := r.Get(ctx, "what databases?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"text":"PostgreSQL"}`), v)

	assert.True(t, mr.Exists("twin:answer:what databases?"))
	assert.Equal(t, time.Minute, mr.TTL("twin:answer:what databases?"))
}

func TestRedis_Expiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, "twin:answer:", time.Minute)

	require.NoError(t, r.Set(ctx, "k", []byte("1")))
	mr.FastForward(2 * time.Minute)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ZeroTTLKeeps(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, "p:", 0)

	require.NoError(t, r.Set(ctx, "k", []byte("1")))
	assert.Zero(t, mr.TTL("p:k"))
	mr.FastForward(time.Hour)
	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedis_PrefixesAreIsolated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	a, err := NewRedis(ctx, mr.Addr(), "", 0, "a:", time.Minute)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedis(ctx, mr.Addr(), "", 0, "b:", time.Minute)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set(ctx, "k", []byte("1")))
	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ServerErrors(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, "p:", time.Minute)
	mr.SetError("ERR backend down")

	_, _, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get cached answer")
	assert.ErrorContains(t, r.Set(ctx, "k", []byte("1")), "failed to set cached answer")
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), addr, "", 0, "p:", time.Minute)
	assert.ErrorContains(t, err, "failed to connect to redis")
}
