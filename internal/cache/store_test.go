package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/newsdesk/internal/cache"
	"github.com/DeafMist/newsdesk/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func str(s string) *string { return &s }

func sampleResult(title string) models.NewsResult {
	return models.NewsResult{Articles: []models.Article{{
		Title:  str(title),
		Source: str("Reuters"),
		URL:    str("https://example.com/" + title),
	}}}
}

// storeFactory builds a fresh store driven by clock with the default TTL.
type storeFactory func(t *testing.T, clock *fakeClock) cache.Store

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("miss on empty store", func(t *testing.T) {
		store := newStore(t, newClock())
		_, ok, err := store.Get(context.Background(), "World_general")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("hit returns stored value", func(t *testing.T) {
		store := newStore(t, newClock())
		want := sampleResult("hello")
		require.NoError(t, store.Put(context.Background(), "World_general", want))

		got, ok, err := store.Get(context.Background(), "World_general")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, got)
	})

	t.Run("expiry boundary", func(t *testing.T) {
		clock := newClock()
		store := newStore(t, clock)
		require.NoError(t, store.Put(context.Background(), "India_tech", sampleResult("a")))

		clock.Advance(cache.DefaultTTL - time.Second)
		_, ok, err := store.Get(context.Background(), "India_tech")
		require.NoError(t, err)
		require.True(t, ok, "entry must be a hit at TTL-1s")

		clock.Advance(2 * time.Second)
		_, ok, err = store.Get(context.Background(), "India_tech")
		require.NoError(t, err)
		require.False(t, ok, "entry must be a miss at TTL+1s")
	})

	t.Run("overwrite refreshes entry", func(t *testing.T) {
		clock := newClock()
		store := newStore(t, clock)
		require.NoError(t, store.Put(context.Background(), "k", sampleResult("old")))
		clock.Advance(cache.DefaultTTL + time.Second)
		require.NoError(t, store.Put(context.Background(), "k", sampleResult("new")))

		got, ok, err := store.Get(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "new", *got.Articles[0].Title)
	})

	t.Run("keys are case sensitive", func(t *testing.T) {
		store := newStore(t, newClock())
		require.NoError(t, store.Put(context.Background(), "India_tech", sampleResult("a")))

		_, ok, err := store.Get(context.Background(), "india_tech")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("empty article list survives", func(t *testing.T) {
		store := newStore(t, newClock())
		empty := models.NewsResult{Articles: []models.Article{}}
		require.NoError(t, store.Put(context.Background(), "Bangalore_home", empty))

		got, ok, err := store.Get(context.Background(), "Bangalore_home")
		require.NoError(t, err)
		require.True(t, ok)
		require.NotNil(t, got.Articles)
		require.Empty(t, got.Articles)
	})
}

func TestKey(t *testing.T) {
	require.Equal(t, "World_general", cache.Key("World", "general"))
	require.Equal(t, "india_Tech", cache.Key("india", "Tech"))
}

func TestEntryStoredAtRoundTrip(t *testing.T) {
	e := cache.Entry{Timestamp: 1717243200.5}
	require.Equal(t, time.Unix(1717243200, 500_000_000).UTC(), e.StoredAt().UTC())
}
