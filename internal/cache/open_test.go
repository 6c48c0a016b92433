package cache_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/newsdesk/internal/cache"
	"github.com/DeafMist/newsdesk/internal/config"
)

func TestOpenSelectsBackend(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	tests := []struct {
		backend string
		want    any
	}{
		{backend: config.CacheFile, want: &cache.File{}},
		{backend: config.CacheMemory, want: &cache.Memory{}},
		{backend: config.CacheSQLite, want: &cache.SQLite{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.Cache{
				Backend:        tt.backend,
				TTL:            time.Minute,
				FilePath:       filepath.Join(dir, "news_cache.json"),
				MemoryCapacity: 4,
				SQLitePath:     filepath.Join(dir, "news_cache.db"),
			}

			store, err := cache.Open(context.Background(), cfg, config.Common{}, log)
			require.NoError(t, err)
			require.IsType(t, tt.want, store)
			if closer, ok := store.(io.Closer); ok {
				t.Cleanup(func() { _ = closer.Close() })
			}
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := cache.Open(context.Background(), config.Cache{Backend: "memcached"}, config.Common{}, log)
	require.ErrorContains(t, err, "memcached")
}
