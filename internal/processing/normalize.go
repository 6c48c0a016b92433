package processing

import (
	"github.com/DeafMist/newsdesk/internal/models"
	"github.com/DeafMist/newsdesk/internal/newsapi"
)

// RemovedTitle marks an article the provider has deleted.
const RemovedTitle = "[Removed]"

// Normalize drops tombstoned articles and projects the rest onto the
// public article shape, keeping provider order. The result is never nil.
func Normalize(raw []newsapi.RawArticle) []models.Article {
	out := make([]models.Article, 0, len(raw))
	for _, a := range raw {
		if a.Title != nil && *a.Title == RemovedTitle {
			continue
		}

		var source *string
		if a.Source != nil {
			source = a.Source.Name
		}

		out = append(out, models.Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      source,
			URL:         a.URL,
			URLToImage:  a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	return out
}
