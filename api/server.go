package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeafMist/newsdesk/internal/elasticsearch"
	"github.com/DeafMist/newsdesk/internal/models"
	"github.com/DeafMist/newsdesk/internal/newserr"
)

const (
	defaultCategory = "general"
	defaultLocation = "World"
)

type newsService interface {
	GetNews(ctx context.Context, category, location string) (models.NewsResult, error)
}

type archiveSearcher interface {
	SearchArticles(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
}

type server struct {
	log            *slog.Logger
	news           newsService
	archive        archiveSearcher
	requestTimeout time.Duration
	defaultPage    int
	maxPage        int
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/news", s.handleNews)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if s.archive != nil {
		r.Get("/archive", s.handleArchive)
	}
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	q := r.URL.Query()
	category := defaultCategory
	if q.Has("category") {
		category = q.Get("category")
	}
	location := defaultLocation
	if q.Has("location") {
		location = q.Get("location")
	}

	result, err := s.news.GetNews(ctx, category, location)
	if err != nil {
		s.log.Warn("news request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("category", category),
			slog.String("location", location),
			slog.Any("err", err),
		)
		s.writeJSON(w, statusFor(err), models.ErrorResponse{Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *server) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Source:   strings.TrimSpace(q.Get("source")),
		Location: strings.ToLower(strings.TrimSpace(q.Get("location"))),
		Category: strings.TrimSpace(q.Get("category")),
		From:     clampInt(q.Get("from"), 0, 10_000),
		Size:     clampInt(q.Get("size"), s.defaultPage, s.maxPage),
	}

	result, err := s.archive.SearchArticles(ctx, params)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func statusFor(err error) int {
	switch newserr.KindOf(err) {
	case newserr.UpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Debug("write response", slog.Int("status", status), slog.Any("err", err))
	}
}
