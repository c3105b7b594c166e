package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMemoryStore_SetTake(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.Take(ctx, 1, StateAwaitingPostLink)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, 1, StateAwaitingPostLink, time.Minute))
	has, err := s.Has(ctx, 1, StateAwaitingPostLink)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.Has(ctx, 1, StateWithdrawMenu)
	require.NoError(t, err)
	assert.False(t, has, "states are independent")

	ok, err = s.Take(ctx, 1, StateAwaitingPostLink)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Take(ctx, 1, StateAwaitingPostLink)
	require.NoError(t, err)
	assert.False(t, ok, "take is single-use")
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 7, StateWithdrawMenu, time.Minute))

	now = now.Add(59 * time.Second)
	has, _ := s.Has(ctx, 7, StateWithdrawMenu)
	assert.True(t, has)

	now = now.Add(time.Second)
	ok, _ := s.Take(ctx, 7, StateWithdrawMenu)
	assert.False(t, ok, "expired state cannot be taken")
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 1, StateAwaitingPostLink, time.Minute))
	require.NoError(t, s.Set(ctx, 1, StateWithdrawMenu, time.Minute))
	require.NoError(t, s.Set(ctx, 2, StateWithdrawMenu, time.Minute))
	require.NoError(t, s.Clear(ctx, 1))

	has, _ := s.Has(ctx, 1, StateAwaitingPostLink)
	assert.False(t, has)
	has, _ = s.Has(ctx, 1, StateWithdrawMenu)
	assert.False(t, has)
	has, _ = s.Has(ctx, 2, StateWithdrawMenu)
	assert.True(t, has, "other users keep their state")
}

// TestMemoryStoreTakeOnceProperty: after one Set, exactly one of any number of
// Take calls succeeds.
func TestMemoryStoreTakeOnceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1<<40).Draw(t, "userID")
		takes := rapid.IntRange(1, 10).Draw(t, "takes")

		s := NewMemoryStore()
		ctx := context.Background()
		_ = s.Set(ctx, userID, StateWithdrawMenu, time.Hour)

		wins := 0
		for i := 0; i < takes; i++ {
			if ok, _ := s.Take(ctx, userID, StateWithdrawMenu); ok {
				wins++
			}
		}
		if wins != 1 {
			t.Fatalf("expected exactly one successful take, got %d", wins)
		}
	})
}
