package processing

import (
	"cmp"
	"crypto/sha1"
	"encoding/hex"
	"html"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	spaceRuns    = regexp.MustCompile(`\s+`)
	nonWordRunes = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {},
	"and": {}, "of": {}, "on": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "after": {}, "over": {}, "says": {}, "said": {}, "will": {},
	"have": {}, "has": {}, "into": {}, "about": {}, "their": {}, "more": {},
}

// RemoveURLs removes all URLs from the input text.
func RemoveURLs(input string) string {
	return urlPattern.ReplaceAllString(input, " ")
}

// CleanText strips HTML entities, URLs and punctuation and squeezes whitespace.
func CleanText(input string) string {
	text := RemoveURLs(html.UnescapeString(input))
	text = nonWordRunes.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRuns.ReplaceAllString(text, " "))
}

// ExtractKeywords ranks the words of text by frequency, skipping stop-words
// and words shorter than minLen runes. Ties are broken alphabetically and at
// most limit words are returned (all of them when limit <= 0).
func ExtractKeywords(text string, limit, minLen int) []string {
	freq := make(map[string]int)
	for _, token := range strings.Fields(strings.ToLower(CleanText(text))) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if utf8.RuneCountInString(token) < minLen {
			continue
		}
		if _, stop := stopwords[token]; !stop {
			freq[token]++
		}
	}
	if len(freq) == 0 {
		return nil
	}

	words := slices.Collect(maps.Keys(freq))
	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(freq[b], freq[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	if limit > 0 && limit < len(words) {
		words = words[:limit]
	}
	return words
}

// BuildArticleID derives a stable archive id from the article URL, falling
// back to title and publish time when the URL is missing.
func BuildArticleID(url, title string, published time.Time) string {
	seed := strings.TrimSpace(url)
	if seed == "" {
		seed = title + "|" + published.UTC().Format(time.RFC3339)
	}
	s := sha1.Sum([]byte(seed))
	return hex.EncodeToString(s[:])
}

// ParsePublishedAt parses the provider timestamp, returning the zero time
// when it is missing or malformed.
func ParsePublishedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
