package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"

	"github.com/DeafMist/newsdesk/internal/models"
	"github.com/DeafMist/newsdesk/internal/newserr"
)

// DocumentStore is the subset of the Elasticsearch client used for caching.
type DocumentStore interface {
	GetDocument(ctx context.Context, index, id string, dst any) (bool, error)
	PutDocument(ctx context.Context, index, id string, doc any) error
}

type elasticDoc struct {
	Key       string            `json:"key"`
	Timestamp float64           `json:"timestamp"`
	Data      models.NewsResult `json:"data"`
}

// Elastic keeps one document per cache key in an Elasticsearch index.
type Elastic struct {
	docs  DocumentStore
	index string
	opts  options
}

// NewElastic returns a store writing into index.
func NewElastic(docs DocumentStore, index string, opts ...Option) *Elastic {
	return &Elastic{docs: docs, index: index, opts: buildOptions(opts)}
}

// Get implements Store.
func (e *Elastic) Get(ctx context.Context, key string) (models.NewsResult, bool, error) {
	var doc elasticDoc
	found, err := e.docs.GetDocument(ctx, e.index, documentID(key), &doc)
	if err != nil {
		return models.NewsResult{}, false, newserr.Cache("read", err)
	}
	if !found || doc.Key != key {
		return models.NewsResult{}, false, nil
	}

	entry := Entry{Timestamp: doc.Timestamp, Data: doc.Data}
	if !entry.fresh(e.opts.now(), e.opts.ttl) {
		e.opts.log.Debug("cache expired", slog.String("key", key))
		return models.NewsResult{}, false, nil
	}
	return entry.Data, true, nil
}

// Put implements Store.
func (e *Elastic) Put(ctx context.Context, key string, value models.NewsResult) error {
	entry := newEntry(e.opts.now(), value)
	doc := elasticDoc{Key: key, Timestamp: entry.Timestamp, Data: entry.Data}
	if err := e.docs.PutDocument(ctx, e.index, documentID(key), doc); err != nil {
		return newserr.Cache("write", err)
	}
	return nil
}

// Keys may contain characters that are awkward in document paths.
func documentID(key string) string {
	s := sha1.Sum([]byte(key))
	return hex.EncodeToString(s[:])
}
