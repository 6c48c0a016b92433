package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DeafMist/newsdesk/internal/config"
	"github.com/DeafMist/newsdesk/internal/elasticsearch"
)

// Open builds the Store selected by cfg.Backend. Backends holding
// connections also implement io.Closer.
func Open(ctx context.Context, cfg config.Cache, common config.Common, log *slog.Logger) (Store, error) {
	opts := []Option{WithTTL(cfg.TTL), WithLogger(log)}

	switch cfg.Backend {
	case config.CacheFile, "":
		return NewFile(cfg.FilePath, opts...), nil

	case config.CacheMemory:
		return NewMemory(cfg.MemoryCapacity, opts...), nil

	case config.CacheRedis:
		store := NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), opts...)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			// Get/Put degrade to misses; the service still answers.
			log.Warn("redis cache unreachable at startup", slog.String("addr", cfg.RedisAddr), slog.Any("err", err))
		}
		return store, nil

	case config.CacheSQLite:
		store, err := OpenSQLite(cfg.SQLitePath, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.CacheElasticsearch:
		es, err := elasticsearch.New(common.ElasticsearchAddr, common.ElasticsearchIndex, log)
		if err != nil {
			return nil, err
		}
		return NewElastic(es, cfg.ElasticIndex, opts...), nil

	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}
