package models

import "time"

// Article is the normalized projection of a provider article.
// Fields are pointers so a value missing upstream is rendered as null.
type Article struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Source      *string `json:"source"`
	URL         *string `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt *string `json:"publishedAt"`
}

// NewsResult is the payload returned for a successful news query.
type NewsResult struct {
	Articles []Article `json:"articles"`
}

// ErrorResponse is the payload returned when a news query fails.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FetchEvent announces a successful upstream fetch to the archive pipeline.
type FetchEvent struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Location  string    `json:"location"`
	Category  string    `json:"category"`
	FetchedAt time.Time `json:"fetched_at"`
	Articles  []Article `json:"articles"`
}

// ArchivedArticle represents the canonical structure stored in Elasticsearch.
type ArchivedArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Keywords    []string  `json:"keywords"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

// Deref returns the value behind s, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
