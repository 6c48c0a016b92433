package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/newsdesk/internal/config"
	"github.com/DeafMist/newsdesk/internal/events"
	"github.com/DeafMist/newsdesk/internal/models"
)

type stubIndexer struct {
	docs []models.ArchivedArticle
	err  error
}

func (s *stubIndexer) IndexArticle(_ context.Context, doc models.ArchivedArticle) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}

func str(s string) *string { return &s }

func testConfig() *config.Worker {
	return &config.Worker{
		Common: config.Common{
			ElasticsearchAddr:  "http://test",
			ElasticsearchIndex: "news_archive",
		},
		KeywordLimit:     5,
		KeywordMinLength: 4,
	}
}

func fetchMessage(t *testing.T, articles ...models.Article) kafka.Message {
	t.Helper()
	ev := events.NewFetchEvent("India_business", "India", "business", articles, time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC))
	msg, err := events.Encode(ev)
	require.NoError(t, err)
	return msg
}

func TestProcessMessageArchivesArticles(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx := &stubIndexer{}
	now := time.Date(2024, 1, 2, 15, 5, 0, 0, time.UTC)

	msg := fetchMessage(t,
		models.Article{Title: str("Sensex climbs on banking rally"), URL: str("https://example.com/sensex"), Source: str("Mint")},
		models.Article{Title: str("Rupee steadies"), URL: str("https://example.com/rupee")},
	)

	require.NoError(t, processMessage(context.Background(), log, idx, testConfig(), msg, now))
	require.Len(t, idx.docs, 2)

	doc := idx.docs[0]
	require.Equal(t, "Sensex climbs on banking rally", doc.Title)
	require.Equal(t, "Mint", doc.Source)
	require.Equal(t, "india", doc.Location)
	require.Equal(t, "business", doc.Category)
	require.Equal(t, now, doc.Timestamp)
	require.NotEmpty(t, doc.Keywords)

	// Redelivery overwrites the same documents.
	require.NoError(t, processMessage(context.Background(), log, idx, testConfig(), msg, now))
	require.Equal(t, idx.docs[0].ID, idx.docs[2].ID)
}

func TestProcessMessageRejectsGarbage(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := processMessage(context.Background(), log, &stubIndexer{}, testConfig(), kafka.Message{Value: []byte("{")}, time.Now())
	require.Error(t, err)
}

func TestProcessMessageSurfacesIndexFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx := &stubIndexer{err: errors.New("cluster red")}

	msg := fetchMessage(t, models.Article{Title: str("Any"), URL: str("https://example.com/any")})
	err := processMessage(context.Background(), log, idx, testConfig(), msg, time.Now())
	require.ErrorContains(t, err, "cluster red")
}

func TestProcessMessageSkipsEmptyEvents(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx := &stubIndexer{}

	require.NoError(t, processMessage(context.Background(), log, idx, testConfig(), fetchMessage(t), time.Now()))
	require.Empty(t, idx.docs)
}
