package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DeafMist/newsdesk/internal/newserr"
)

const (
	// DefaultBaseURL is the public NewsAPI v2 endpoint.
	DefaultBaseURL  = "https://newsapi.org/v2"
	DefaultPageSize = 20
	DefaultTimeout  = 8 * time.Second

	apiKeyHeader        = "X-Api-Key"
	unknownErrorMessage = "Unknown error from NewsAPI"
	maxBodyBytes        = 8 << 20
)

// Source is the nested source object of a provider article.
type Source struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// RawArticle is an article exactly as the provider returns it.
type RawArticle struct {
	Source      *Source `json:"source"`
	Author      *string `json:"author"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt *string `json:"publishedAt"`
	Content     *string `json:"content"`
}

type response struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []RawArticle `json:"articles"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
	// RateInterval spaces upstream calls; zero disables limiting.
	RateInterval time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client issues headline and full-text queries against NewsAPI.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	limiter  *rate.Limiter
	log      *slog.Logger
}

// New instantiates the provider client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("newsapi: api key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		http:     hc,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		pageSize: opts.PageSize,
		log:      logger,
	}
	if opts.RateInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.RateInterval), 1)
	}
	return c, nil
}

// Search executes req and returns the provider's articles in order.
// Failures are *newserr.Error values: UpstreamError when the provider
// rejected the call, UpstreamUnavailable for anything else.
func (c *Client) Search(ctx context.Context, req QueryRequest) ([]RawArticle, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(req.Mode(), fmt.Errorf("rate limit wait: %w", err))
		}
	}

	endpoint := c.baseURL + req.Mode().Endpoint() + "?" + req.Values(c.pageSize).Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, transportError(req.Mode(), fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	c.log.Debug("newsapi request", slog.String("request", req.String()))

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(req.Mode(), err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(req.Mode(), fmt.Errorf("read response: %w", err))
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, newserr.Upstream(fmt.Sprintf("%s (HTTP %d)", unknownErrorMessage, res.StatusCode))
		}
		return nil, transportError(req.Mode(), fmt.Errorf("decode response: %w", err))
	}

	if res.StatusCode != http.StatusOK || parsed.Status == "error" {
		msg := strings.TrimSpace(parsed.Message)
		if msg == "" {
			msg = unknownErrorMessage
		}
		c.log.Warn("newsapi rejected request",
			slog.String("request", req.String()),
			slog.Int("status", res.StatusCode),
			slog.String("code", parsed.Code),
		)
		return nil, newserr.Upstream(msg)
	}

	return parsed.Articles, nil
}

// transportError tags err as UpstreamUnavailable with a message that never
// carries the request URL.
func transportError(mode Mode, err error) *newserr.Error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return newserr.UnavailableMsg(mode.String()+" request failed: "+err.Error(), err)
}
