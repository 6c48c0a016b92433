package cache_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/newsdesk/internal/cache"
)

func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, clock *fakeClock) cache.Store {
		store, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), cache.WithClock(clock.Now))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	clock := newClock()

	first, err := cache.OpenSQLite(path, cache.WithClock(clock.Now))
	require.NoError(t, err)
	require.NoError(t, first.Put(context.Background(), "India_finance", sampleResult("rupee")))
	require.NoError(t, first.Close())

	second, err := cache.OpenSQLite(path, cache.WithClock(clock.Now))
	require.NoError(t, err)
	defer second.Close()

	got, ok, err := second.Get(context.Background(), "India_finance")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "rupee", *got.Articles[0].Title)
}
