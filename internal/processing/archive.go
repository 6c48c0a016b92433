package processing

import (
	"strings"
	"time"

	"github.com/DeafMist/newsdesk/internal/models"
)

// ArchiveArticles turns the articles of a fetch event into archive documents
// with extracted keywords. Articles carrying neither title nor URL are skipped.
func ArchiveArticles(ev models.FetchEvent, keywordLimit, minLen int, now time.Time) []models.ArchivedArticle {
	docs := make([]models.ArchivedArticle, 0, len(ev.Articles))
	for _, a := range ev.Articles {
		title := strings.TrimSpace(models.Deref(a.Title))
		url := strings.TrimSpace(models.Deref(a.URL))
		if title == "" && url == "" {
			continue
		}

		description := strings.TrimSpace(models.Deref(a.Description))
		published := ParsePublishedAt(models.Deref(a.PublishedAt))
		if published.IsZero() {
			published = ev.FetchedAt.UTC()
		}

		source := strings.TrimSpace(models.Deref(a.Source))
		if source == "" {
			source = "unknown"
		}

		docs = append(docs, models.ArchivedArticle{
			ID:          BuildArticleID(url, title, published),
			Title:       title,
			Description: description,
			Source:      source,
			URL:         url,
			ImageURL:    models.Deref(a.URLToImage),
			PublishedAt: published,
			Keywords:    ExtractKeywords(title+" "+description, keywordLimit, minLen),
			Location:    strings.ToLower(ev.Location),
			Category:    ev.Category,
			Timestamp:   now.UTC(),
		})
	}
	return docs
}
