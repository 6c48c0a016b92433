package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/newsdesk/internal/cache"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, clock *fakeClock) cache.Store {
		return cache.NewMemory(64, cache.WithClock(clock.Now))
	})
}

func TestMemoryCapacityEvictsOldestWrite(t *testing.T) {
	store := cache.NewMemory(2)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "first", sampleResult("1")))
	require.NoError(t, store.Put(ctx, "second", sampleResult("2")))
	// Rewriting first makes second the oldest write.
	require.NoError(t, store.Put(ctx, "first", sampleResult("1b")))
	require.NoError(t, store.Put(ctx, "third", sampleResult("3")))

	require.Equal(t, 2, store.Len())

	_, ok, _ := store.Get(ctx, "second")
	require.False(t, ok)

	got, ok, _ := store.Get(ctx, "first")
	require.True(t, ok)
	require.Equal(t, "1b", *got.Articles[0].Title)

	_, ok, _ = store.Get(ctx, "third")
	require.True(t, ok)
}

func TestMemoryUnboundedKeepsEveryKey(t *testing.T) {
	clock := newClock()
	store := cache.NewMemory(0, cache.WithClock(clock.Now))
	ctx := context.Background()

	for i := range 100 {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("World_%d", i), sampleResult("x")))
	}
	clock.Advance(cache.DefaultTTL + time.Second)

	require.Equal(t, 100, store.Len())
	_, ok, err := store.Get(ctx, "World_0")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 100, store.Len())
}
