// Package cache memoizes news results per logical query for a bounded time.
package cache

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/DeafMist/newsdesk/internal/models"
)

// DefaultTTL is how long an entry counts as a hit after it was stored.
const DefaultTTL = 200 * time.Second

// Store is a keyed, time-expiring cache of news results.
//
// Get returns ok=false on a miss. A non-nil error means the backing could
// not be read; callers treat it as a miss. Expired entries are never hits,
// but backends keep them until the key is written again.
type Store interface {
	Get(ctx context.Context, key string) (models.NewsResult, bool, error)
	Put(ctx context.Context, key string, value models.NewsResult) error
}

// Key builds the cache key for a query. Keys are case-sensitive.
func Key(location, category string) string {
	return location + "_" + category
}

// Entry is the persisted form of a cached result.
type Entry struct {
	Timestamp float64           `json:"timestamp"`
	Data      models.NewsResult `json:"data"`
}

func newEntry(now time.Time, value models.NewsResult) Entry {
	return Entry{Timestamp: float64(now.UnixNano()) / 1e9, Data: value}
}

// StoredAt converts the epoch-seconds timestamp back to a time.
func (e Entry) StoredAt() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func (e Entry) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt()) < ttl
}

// Option customizes a Store.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
	log *slog.Logger
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger attaches a logger for diagnostics that never reach callers.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		ttl: DefaultTTL,
		now: time.Now,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
