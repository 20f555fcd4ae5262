package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGuardIsExclusive(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	key := PredictGuard("f1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Acquire(ctx, key)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, acquired)

	require.NoError(t, s.Release(ctx, key))
	ok, err := s.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreGuardsArePerKey(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	ok, _ := s.Acquire(ctx, PredictGuard("f1"))
	assert.True(t, ok)
	ok, _ = s.Acquire(ctx, SubmitGuard("f1"))
	assert.True(t, ok)
	ok, _ = s.Acquire(ctx, PredictGuard("f2"))
	assert.True(t, ok)
}

func TestMemoryStoreUpdateAfterDiscardIsNoop(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	f, err := s.Create(ctx, "u1")
	require.NoError(t, err)

	applied, err := s.Update(ctx, f.ID, func(f *Form) { f.PredictedPrice = 100 })
	require.NoError(t, err)
	assert.True(t, applied)

	require.NoError(t, s.Discard(ctx, f.ID))
	applied, err = s.Update(ctx, f.ID, func(f *Form) { f.PredictedPrice = 200 })
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	f, err := s.Create(ctx, "u1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	got, err := s.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	f, _ := s.Create(ctx, "u1")
	_, _ = s.Update(ctx, f.ID, func(f *Form) { f.Images = []string{"a"} })

	got, _ := s.Get(ctx, f.ID)
	got.Images[0] = "changed"

	again, _ := s.Get(ctx, f.ID)
	assert.Equal(t, "a", again.Images[0])
}
