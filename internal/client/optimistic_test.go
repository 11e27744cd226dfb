package client

import (
	"context"
	"errors"
	"testing"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_StaleAndInvalidate(t *testing.T) {
	cache := NewCache()
	assert.True(t, cache.IsStale("order:1"), "missing keys are stale")

	cache.Set("order:1", 1)
	cache.Set("orders:mine", []int{1})
	cache.Set("orders:admin", []int{1})
	cache.Set("cart", "c")
	assert.False(t, cache.IsStale("order:1"))

	cache.Invalidate("orders:")
	assert.True(t, cache.IsStale("orders:mine"))
	assert.True(t, cache.IsStale("orders:admin"))
	assert.False(t, cache.IsStale("order:1"))
	assert.False(t, cache.IsStale("cart"))

	v, ok := Lookup[int](cache, "order:1")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = Lookup[string](cache, "order:1")
	assert.False(t, ok, "wrong type is a miss")
}

func TestCache_SnapshotRestore(t *testing.T) {
	cache := NewCache()
	cache.Set("k", "before")
	cache.MarkStale("k")
	snap := cache.Snapshot("k")

	cache.Set("k", "after")
	cache.Restore(snap)

	v, _ := cache.Get("k")
	assert.Equal(t, "before", v)
	assert.True(t, cache.IsStale("k"), "stale flag restored too")

	absent := cache.Snapshot("missing")
	cache.Set("missing", "x")
	cache.Restore(absent)
	_, ok := cache.Get("missing")
	assert.False(t, ok)
}

func TestWithOptimisticUpdate_Success(t *testing.T) {
	cache := NewCache()
	cache.Set("order:1", 1)
	cache.Set("orders:mine", "list")

	got, err := WithOptimisticUpdate(context.Background(), cache, "order:1",
		func(v int) int { return v + 1 },
		func(ctx context.Context) (int, error) {
			local, _ := Lookup[int](cache, "order:1")
			assert.Equal(t, 2, local, "optimistic value visible while committing")
			return 10, nil
		},
		func(Snapshot) { t.Fatal("rollback must not run on success") },
		Invalidates("orders:"),
	)

	require.NoError(t, err)
	assert.Equal(t, 10, got)
	v, _ := cache.Get("order:1")
	assert.Equal(t, 10, v, "server value replaces the optimistic one")
	assert.True(t, cache.IsStale("order:1"), "settled key revalidates on next read")
	assert.True(t, cache.IsStale("orders:mine"))
}

func TestWithOptimisticUpdate_ErrorRestoresSnapshot(t *testing.T) {
	cache := NewCache()
	cache.Set("order:1", 5)
	cache.Set("orders:mine", "list")

	var rolledBack *Snapshot
	_, err := WithOptimisticUpdate(context.Background(), cache, "order:1",
		func(v int) int { return 99 },
		func(ctx context.Context) (int, error) {
			return 0, shared.ErrInvalidStateTransition
		},
		func(s Snapshot) { rolledBack = &s },
		Invalidates("orders:"),
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	v, _ := cache.Get("order:1")
	assert.Equal(t, 5, v)
	require.NotNil(t, rolledBack)
	assert.Equal(t, Snapshot{Key: "order:1", Value: 5, Present: true}, *rolledBack)
	assert.False(t, cache.IsStale("orders:mine"), "dependents untouched on failure")
	assert.True(t, cache.IsStale("order:1"))
}

func TestWithOptimisticUpdate_ErrorOnUncachedKey(t *testing.T) {
	cache := NewCache()

	_, err := WithOptimisticUpdate(context.Background(), cache, "cart",
		func(v *int) *int { return new(int) },
		func(ctx context.Context) (*int, error) { return nil, shared.ErrStockUnavailable },
		nil,
	)

	assert.ErrorIs(t, err, shared.ErrStockUnavailable)
	_, ok := cache.Get("cart")
	assert.False(t, ok, "absent before, absent after")
}

func TestWithOptimisticUpdate_InvalidatesFromResult(t *testing.T) {
	cache := NewCache()
	cache.Set("order:42", "paid?")

	_, err := WithOptimisticUpdate(context.Background(), cache, "payment:7",
		nil,
		func(ctx context.Context) (string, error) { return "42", nil },
		nil,
		InvalidatesFrom(func(orderID string) []string { return []string{"order:" + orderID} }),
	)

	require.NoError(t, err)
	assert.True(t, cache.IsStale("order:42"))
}

func TestWithOptimisticUpdate_MutationInFlight(t *testing.T) {
	cache := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := WithOptimisticUpdate(context.Background(), cache, "cart", nil,
			func(ctx context.Context) (int, error) {
				close(started)
				<-release
				return 1, nil
			},
			nil,
		)
		done <- err
	}()
	<-started

	_, err := WithOptimisticUpdate(context.Background(), cache, "cart", nil,
		func(ctx context.Context) (int, error) { return 2, nil }, nil)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	_, err = WithOptimisticUpdate(context.Background(), cache, "order:1", nil,
		func(ctx context.Context) (int, error) { return 3, nil }, nil)
	assert.NoError(t, err, "other keys are independent")

	close(release)
	require.NoError(t, <-done)
	v, _ := cache.Get("cart")
	assert.Equal(t, 1, v)
}
