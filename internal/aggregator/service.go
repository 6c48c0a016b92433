// Package aggregator answers news queries from the cache or the provider.
package aggregator

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/DeafMist/newsdesk/internal/cache"
	"github.com/DeafMist/newsdesk/internal/events"
	"github.com/DeafMist/newsdesk/internal/metrics"
	"github.com/DeafMist/newsdesk/internal/models"
	"github.com/DeafMist/newsdesk/internal/newsapi"
	"github.com/DeafMist/newsdesk/internal/newserr"
	"github.com/DeafMist/newsdesk/internal/planner"
	"github.com/DeafMist/newsdesk/internal/processing"
)

// Searcher issues one upstream query.
type Searcher interface {
	Search(ctx context.Context, req newsapi.QueryRequest) ([]newsapi.RawArticle, error)
}

// Publisher announces fetched results.
type Publisher interface {
	Publish(ctx context.Context, ev models.FetchEvent) error
}

// Service orchestrates cache lookup, planning, upstream calls and caching.
type Service struct {
	provider     Searcher
	store        cache.Store
	publisher    Publisher
	log          *slog.Logger
	now          func() time.Time
	fetchTimeout time.Duration
	group        singleflight.Group
}

// DefaultFetchTimeout bounds one shared fetch, primary and fallback included.
const DefaultFetchTimeout = 30 * time.Second

// Option customizes a Service.
type Option func(*Service)

// WithPublisher announces every upstream fetch through p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFetchTimeout bounds each shared upstream fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// New wires a Service.
func New(provider Searcher, store cache.Store, opts ...Option) *Service {
	s := &Service{
		provider:     provider,
		store:        store,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:          time.Now,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetNews returns the articles for (category, location).
//
// The only error it returns is the primary upstream failure, as a
// *newserr.Error, or ctx's error when the caller gives up first. Cache,
// fallback and publish failures are logged and absorbed.
//
// Concurrent misses for one key share a single fetch. The shared fetch is
// detached from any one caller's cancellation and bounded by the fetch
// timeout instead.
func (s *Service) GetNews(ctx context.Context, category, location string) (models.NewsResult, error) {
	key := cache.Key(location, category)

	if res, ok := s.lookup(ctx, key); ok {
		return res, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		// Another caller may have stored the key since our lookup.
		if res, ok, err := s.store.Get(fetchCtx, key); err == nil && ok {
			s.log.Debug("key filled while waiting", slog.String("key", key))
			return res, nil
		}
		return s.fetch(fetchCtx, key, category, location)
	})

	select {
	case <-ctx.Done():
		s.log.Debug("caller left before fetch completed", slog.String("key", key), slog.Any("err", ctx.Err()))
		return models.NewsResult{}, ctx.Err()
	case r := <-ch:
		if r.Shared {
			s.log.Debug("joined in-flight fetch", slog.String("key", key))
		}
		if r.Err != nil {
			return models.NewsResult{}, r.Err
		}
		return r.Val.(models.NewsResult), nil
	}
}

func (s *Service) lookup(ctx context.Context, key string) (models.NewsResult, bool) {
	res, ok, err := s.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.log.Warn("cache read failed, treating as miss", slog.String("key", key), slog.Any("err", err))
		return models.NewsResult{}, false
	case ok:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.log.Info("serving from cache", slog.String("key", key))
		return res, true
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return models.NewsResult{}, false
	}
}

func (s *Service) fetch(ctx context.Context, key, category, location string) (models.NewsResult, error) {
	primary, fallback := planner.Plan(location, category)

	raw, err := s.search(ctx, primary)
	if err != nil {
		if newserr.KindOf(err) == 0 {
			err = newserr.Unavailable(err)
		}
		s.log.Warn("upstream request failed",
			slog.String("key", key),
			slog.String("request", primary.String()),
			slog.String("kind", newserr.KindOf(err).String()),
			slog.Any("err", err),
		)
		return models.NewsResult{}, err
	}

	if len(raw) == 0 && fallback != nil {
		req := fallback(location, category)
		s.log.Info("no headlines, attempting fallback",
			slog.String("key", key),
			slog.String("request", req.String()),
		)
		fb, ferr := s.search(ctx, req)
		if ferr != nil {
			metrics.Fallbacks.WithLabelValues("error").Inc()
			s.log.Warn("fallback request failed, keeping empty result", slog.String("key", key), slog.Any("err", ferr))
		} else {
			metrics.Fallbacks.WithLabelValues("ok").Inc()
			raw = fb
		}
	}

	articles := processing.Normalize(raw)
	if removed := len(raw) - len(articles); removed > 0 {
		metrics.RemovedArticles.Add(float64(removed))
	}
	result := models.NewsResult{Articles: articles}

	if err := s.store.Put(ctx, key, result); err != nil {
		metrics.CacheWriteErrors.Inc()
		s.log.Warn("cache write failed", slog.String("key", key), slog.Any("err", err))
	}

	if s.publisher != nil {
		ev := events.NewFetchEvent(key, location, category, result.Articles, s.now())
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.log.Warn("publish fetch event failed", slog.String("key", key), slog.Any("err", err))
		}
	}

	s.log.Info("fetched news", slog.String("key", key), slog.Int("articles", len(articles)))
	return result, nil
}

func (s *Service) search(ctx context.Context, req newsapi.QueryRequest) ([]newsapi.RawArticle, error) {
	mode := req.Mode().String()
	start := s.now()
	raw, err := s.provider.Search(ctx, req)
	metrics.UpstreamDuration.WithLabelValues(mode).Observe(s.now().Sub(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = newserr.KindOf(err).String()
	}
	metrics.UpstreamRequests.WithLabelValues(mode, outcome).Inc()
	return raw, err
}

// Payload renders the public response body for a GetNews outcome.
func Payload(res models.NewsResult, err error) any {
	if err != nil {
		return models.ErrorResponse{Error: err.Error()}
	}
	return res
}
