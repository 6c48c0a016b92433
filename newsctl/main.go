package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/DeafMist/newsdesk/internal/aggregator"
	"github.com/DeafMist/newsdesk/internal/cache"
	"github.com/DeafMist/newsdesk/internal/config"
	"github.com/DeafMist/newsdesk/internal/logger"
	"github.com/DeafMist/newsdesk/internal/newsapi"
)

// deps builds the collaborators a command needs. Tests swap them out.
type deps struct {
	provider func(log *slog.Logger) (aggregator.Searcher, error)
	store    func(ctx context.Context, log *slog.Logger) (cache.Store, error)
}

func defaultDeps() deps {
	return deps{
		provider: func(log *slog.Logger) (aggregator.Searcher, error) {
			cfg, err := config.LoadProvider()
			if err != nil {
				return nil, err
			}
			client, err := newsapi.New(newsapi.Options{
				BaseURL:      cfg.BaseURL,
				APIKey:       cfg.APIKey,
				PageSize:     cfg.PageSize,
				Timeout:      cfg.Timeout,
				RateInterval: cfg.RateInterval,
				Logger:       log,
			})
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		store: func(ctx context.Context, log *slog.Logger) (cache.Store, error) {
			cfg, err := config.LoadCache()
			if err != nil {
				return nil, err
			}
			return cache.Open(ctx, *cfg, config.LoadCommon(), log)
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "newsctl",
		Short: "Inspect and exercise the news aggregation pipeline",
		Long: `newsctl runs pieces of the news service from a terminal.

Available commands:
  plan   - show which NewsAPI requests a location/category produces
  fetch  - run one aggregated lookup through the configured cache
  probe  - query top headlines for a country across categories`,
		SilenceUsage: true,
	}

	root.AddCommand(newPlanCmd())
	root.AddCommand(newFetchCmd(d))
	root.AddCommand(newProbeCmd(d))
	return root
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "could not load .env file:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd(defaultDeps()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger.NewWithWriter("newsctl", cmd.ErrOrStderr(), "debug", "text")
}
