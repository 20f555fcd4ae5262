package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl, guardTTL time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), mr.Addr(), "", 0, ttl, guardTTL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreUpdateKeepsExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Hour, time.Minute)
	ctx := context.Background()

	f, err := s.Create(ctx, "u1")
	require.NoError(t, err)

	applied, err := s.Update(ctx, f.ID, func(f *Form) {
		f.PredictedPrice = 55000
		f.Images = append(f.Images, "listings/a.jpg")
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, time.Hour, mr.TTL(formKey(f.ID)))

	got, err := s.Get(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, 55000.0, got.PredictedPrice)
	assert.Equal(t, []string{"listings/a.jpg"}, got.Images)

	mr.FastForward(2 * time.Hour)
	got, err = s.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreUpdateAfterDiscardIsNoop(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour, time.Minute)
	ctx := context.Background()

	f, err := s.Create(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, s.Discard(ctx, f.ID))

	called := false
	applied, err := s.Update(ctx, f.ID, func(f *Form) { called = true })
	require.NoError(t, err)
	assert.False(t, applied)
	assert.False(t, called)

	got, err := s.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreGuards(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Hour, time.Minute)
	ctx := context.Background()
	key := PredictGuard("f1")

	ok, err := s.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Acquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire while held")

	ok, err = s.Acquire(ctx, SubmitGuard("f1"))
	require.NoError(t, err)
	assert.True(t, ok, "guards are per key")

	require.NoError(t, s.Release(ctx, key))
	ok, err = s.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	// an abandoned guard frees itself after the guard TTL
	mr.FastForward(2 * time.Minute)
	ok, err = s.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisStoreFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), addr, "", 0, time.Hour, time.Minute)
	assert.Error(t, err)
}
