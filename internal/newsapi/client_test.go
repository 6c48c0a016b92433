package newsapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/newsdesk/internal/newsapi"
	"github.com/DeafMist/newsdesk/internal/newserr"
)

func newClient(t *testing.T, url string, timeout time.Duration) *newsapi.Client {
	t.Helper()
	c, err := newsapi.New(newsapi.Options{BaseURL: url, APIKey: "secret", Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestSearchHeadlinesInjectsCredentialsAndParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":1,"articles":[{"source":{"id":null,"name":"The Hindu"},"title":"Monsoon arrives","url":"https://example.com/a"}]}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, time.Second)
	req := newsapi.NewRequest(newsapi.Headlines,
		newsapi.P(newsapi.FieldCountry, "in"),
		newsapi.P(newsapi.FieldCategory, "technology"),
	)

	articles, err := c.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "Monsoon arrives", *articles[0].Title)
	require.Equal(t, "The Hindu", *articles[0].Source.Name)

	require.Equal(t, "/top-headlines", gotPath)
	require.Equal(t, "secret", gotKey)
	require.NotContains(t, gotQuery, "apiKey")
	require.Equal(t, []string{"20"}, gotQuery["pageSize"])
	require.Equal(t, []string{"in"}, gotQuery["country"])
	require.Equal(t, []string{"technology"}, gotQuery["category"])
}

func TestSearchEverythingUsesFullTextEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Empty(t, r.URL.Query().Get("country"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, time.Second)
	articles, err := c.Search(context.Background(), newsapi.NewRequest(newsapi.Everything,
		newsapi.P(newsapi.FieldQuery, "Bangalore"),
		newsapi.P(newsapi.FieldCountry, "in"),
	))
	require.NoError(t, err)
	require.Empty(t, articles)
	require.Equal(t, "/everything", gotPath)
}

func TestSearchSurfacesProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, time.Second).Search(context.Background(), newsapi.NewRequest(newsapi.Headlines))
	require.Error(t, err)
	require.Equal(t, newserr.UpstreamError, newserr.KindOf(err))
	require.Equal(t, "Your API key is invalid.", err.Error())
}

func TestSearchDefaultsMessageWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, time.Second).Search(context.Background(), newsapi.NewRequest(newsapi.Headlines))
	require.Equal(t, newserr.UpstreamError, newserr.KindOf(err))
	require.Equal(t, "Unknown error from NewsAPI", err.Error())
}

func TestSearchTreatsMalformedBodyAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, time.Second).Search(context.Background(), newsapi.NewRequest(newsapi.Headlines))
	require.Equal(t, newserr.UpstreamUnavailable, newserr.KindOf(err))
}

func TestSearchTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newClient(t, srv.URL, 50*time.Millisecond).Search(context.Background(), newsapi.NewRequest(newsapi.Headlines))
	require.Equal(t, newserr.UpstreamUnavailable, newserr.KindOf(err))
	require.NotContains(t, err.Error(), "secret")
	require.NotContains(t, err.Error(), srv.URL)
}

func TestSearchTransportErrorHidesCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	req := newsapi.NewRequest(newsapi.Headlines, newsapi.P(newsapi.FieldCountry, "in"))
	_, err := newClient(t, deadURL, time.Second).Search(context.Background(), req)
	require.Equal(t, newserr.UpstreamUnavailable, newserr.KindOf(err))
	require.True(t, strings.HasPrefix(err.Error(), "headlines request failed: "), err.Error())
	require.NotContains(t, err.Error(), "secret")
	require.NotContains(t, err.Error(), "country=in")
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := newsapi.New(newsapi.Options{})
	require.Error(t, err)
}

func TestRequestDropsFieldsForeignToMode(t *testing.T) {
	req := newsapi.NewRequest(newsapi.Everything,
		newsapi.P(newsapi.FieldQuery, "India"),
		newsapi.P(newsapi.FieldCategory, "business"),
		newsapi.P(newsapi.FieldSortBy, "publishedAt"),
	)
	require.False(t, req.Has(newsapi.FieldCategory))
	require.Equal(t, "/everything?q=India&sortBy=publishedAt", req.String())

	params := req.Params()
	params[newsapi.FieldQuery] = "mutated"
	q, _ := req.Get(newsapi.FieldQuery)
	require.Equal(t, "India", q)
}
