package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DeafMist/newsdesk/internal/aggregator"
	"github.com/DeafMist/newsdesk/internal/cache"
	"github.com/DeafMist/newsdesk/internal/config"
	"github.com/DeafMist/newsdesk/internal/elasticsearch"
	"github.com/DeafMist/newsdesk/internal/events"
	"github.com/DeafMist/newsdesk/internal/logger"
	"github.com/DeafMist/newsdesk/internal/newsapi"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", slog.Any("err", err))
	}

	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	provider, err := newsapi.New(newsapi.Options{
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       cfg.Provider.APIKey,
		PageSize:     cfg.Provider.PageSize,
		Timeout:      cfg.Provider.Timeout,
		RateInterval: cfg.Provider.RateInterval,
		Logger:       log,
	})
	if err != nil {
		log.Error("init newsapi client", slog.Any("err", err))
		os.Exit(1)
	}

	store, err := cache.Open(ctx, cfg.Cache, cfg.Common, log)
	if err != nil {
		log.Error("init cache", slog.String("backend", cfg.Cache.Backend), slog.Any("err", err))
		os.Exit(1)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	requestTimeout := 2*cfg.Provider.Timeout + 2*time.Second
	opts := []aggregator.Option{
		aggregator.WithLogger(log),
		aggregator.WithFetchTimeout(requestTimeout),
	}
	if cfg.PublishEnabled() {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer publisher.Close()
		opts = append(opts, aggregator.WithPublisher(publisher))
		log.Info("publishing fetch events", slog.String("topic", cfg.KafkaTopic))
	}

	srv := &server{
		log:            log,
		news:           aggregator.New(provider, store, opts...),
		requestTimeout: requestTimeout,
		defaultPage:    cfg.DefaultPage,
		maxPage:        cfg.MaxPage,
	}

	if cfg.ArchiveEnabled {
		esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Error("init elasticsearch", slog.Any("err", err))
			os.Exit(1)
		}
		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := esClient.Health(healthCtx); err != nil {
			log.Warn("archive cluster unhealthy, searches may fail", slog.Any("err", err))
		}
		cancel()
		srv.archive = esClient
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      srv.requestTimeout + 5*time.Second,
	}

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("cache_backend", cfg.Cache.Backend),
			slog.Duration("cache_ttl", cfg.Cache.TTL),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
