// Package planner turns a logical (location, category) pair into upstream queries.
//
// Headline and full-text queries accept disjoint filter sets, and headline
// coverage for some countries is sparse. The tables below hide both behind a
// single lookup; adding a location or category means adding a table row.
package planner

import (
	"strings"

	"github.com/DeafMist/newsdesk/internal/newsapi"
)

// LocationClass groups locations that share request-shaping rules.
type LocationClass int

const (
	World LocationClass = iota
	India
	Bangalore
)

// General is the category that adds no topical filter.
const General = "general"

func (c LocationClass) String() string {
	switch c {
	case India:
		return "india"
	case Bangalore:
		return "bangalore"
	default:
		return "world"
	}
}

// CategoryRule maps a caller-facing category onto headline filters.
type CategoryRule struct {
	Category string
	Query    string
}

// FallbackBuilder builds the request issued when the primary query returns
// no articles.
type FallbackBuilder func(location, category string) newsapi.QueryRequest

type classSpec struct {
	mode       newsapi.Mode
	base       []newsapi.Param
	topic      string
	categories map[string]CategoryRule
	fallback   FallbackBuilder
}

var locations = map[string]LocationClass{
	"bangalore": Bangalore,
	"india":     India,
	"world":     World,
}

// NewsAPI has no finance category; India narrows business headlines by
// text, World does not because strict text filtering on headlines comes
// back empty.
var (
	indiaCategories = map[string]CategoryRule{
		"finance": {Category: "business", Query: "finance"},
		"tech":    {Category: "technology"},
		"home":    {Category: General},
	}
	worldCategories = map[string]CategoryRule{
		"finance": {Category: "business"},
		"tech":    {Category: "technology"},
		"home":    {Category: General},
	}
)

var indiaFallbackQueries = map[string]string{
	"finance":  "finance India",
	"business": "business India",
	"tech":     "technology India",
}

const indiaFallbackDefault = "India"

var classes = map[LocationClass]classSpec{
	Bangalore: {
		mode:  newsapi.Everything,
		topic: "Bangalore",
	},
	India: {
		mode:       newsapi.Headlines,
		base:       []newsapi.Param{newsapi.P(newsapi.FieldCountry, "in")},
		categories: indiaCategories,
		fallback:   indiaFallback,
	},
	World: {
		mode:       newsapi.Headlines,
		base:       []newsapi.Param{newsapi.P(newsapi.FieldLanguage, "en")},
		categories: worldCategories,
	},
}

// Classify resolves location case-insensitively. Unknown values are World.
func Classify(location string) LocationClass {
	if c, ok := locations[strings.ToLower(location)]; ok {
		return c
	}
	return World
}

// Plan returns the primary request for (location, category) and the
// fallback builder for its class, or nil when the class has none.
func Plan(location, category string) (newsapi.QueryRequest, FallbackBuilder) {
	spec := classes[Classify(location)]
	return spec.primary(category), spec.fallback
}

// Fallback is a convenience wrapper that builds the fallback request directly.
func Fallback(location, category string) (newsapi.QueryRequest, bool) {
	_, build := Plan(location, category)
	if build == nil {
		return newsapi.QueryRequest{}, false
	}
	return build(location, category), true
}

func (s classSpec) primary(category string) newsapi.QueryRequest {
	params := make([]newsapi.Param, 0, len(s.base)+3)
	params = append(params, s.base...)

	if s.mode == newsapi.Everything {
		q := s.topic
		if category != General {
			q += " AND " + category
		}
		params = append(params,
			newsapi.P(newsapi.FieldQuery, q),
			newsapi.P(newsapi.FieldSortBy, "publishedAt"),
			newsapi.P(newsapi.FieldLanguage, "en"),
		)
		return newsapi.NewRequest(s.mode, params...)
	}

	rule, ok := s.categories[category]
	if !ok {
		rule = CategoryRule{Category: category}
	}
	params = append(params, newsapi.P(newsapi.FieldCategory, rule.Category))
	if rule.Query != "" {
		params = append(params, newsapi.P(newsapi.FieldQuery, rule.Query))
	}
	return newsapi.NewRequest(s.mode, params...)
}

func indiaFallback(_, category string) newsapi.QueryRequest {
	q, ok := indiaFallbackQueries[category]
	if !ok {
		q = indiaFallbackDefault
	}
	return newsapi.NewRequest(newsapi.Everything,
		newsapi.P(newsapi.FieldQuery, q),
		newsapi.P(newsapi.FieldSortBy, "publishedAt"),
		newsapi.P(newsapi.FieldLanguage, "en"),
	)
}
