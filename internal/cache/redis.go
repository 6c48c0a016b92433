package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/DeafMist/newsdesk/internal/models"
	"github.com/DeafMist/newsdesk/internal/newserr"
)

const redisKeyPrefix = "newsdesk:cache:"

// Redis stores one entry per cache key. Keys carry no Redis expiry;
// freshness is decided on read like every other backend.
type Redis struct {
	client *redis.Client
	opts   options
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, opts ...Option) *Redis {
	return &Redis{client: client, opts: buildOptions(opts)}
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (models.NewsResult, bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewsResult{}, false, nil
	}
	if err != nil {
		return models.NewsResult{}, false, newserr.Cache("read", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.NewsResult{}, false, newserr.Cache("read", fmt.Errorf("decode %s: %w", key, err))
	}
	if !entry.fresh(r.opts.now(), r.opts.ttl) {
		r.opts.log.Debug("cache expired", slog.String("key", key))
		return models.NewsResult{}, false, nil
	}
	return entry.Data, true, nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, key string, value models.NewsResult) error {
	payload, err := json.Marshal(newEntry(r.opts.now(), value))
	if err != nil {
		return newserr.Cache("write", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, payload, 0).Err(); err != nil {
		return newserr.Cache("write", err)
	}
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
