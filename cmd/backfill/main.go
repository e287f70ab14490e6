package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/backfill"
	"github.com/xgoalpro/prediction-api/internal/config"
	"github.com/xgoalpro/prediction-api/internal/store"
	"github.com/xgoalpro/prediction-api/internal/upstream"
)

// One-shot job: resolve final scores for every prediction still carrying
// sentinel scores, then exit. Intended to run from cron.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := store.NewGateway(store.GatewayConfig{
		URL:        cfg.PostgresURL,
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		Logger:     logger,
	})
	if err := gateway.Init(ctx); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer gateway.Close()
	predStore := store.New(gateway, logger)

	dataClient := upstream.New(upstream.Config{
		BaseURL:     cfg.FootballDataURL,
		Token:       cfg.FootballDataToken,
		HTTPTimeout: cfg.UpstreamTimeout,
		LeagueCodes: cfg.LeagueCodes,
		Logger:      logger,
	})

	job := backfill.New(backfill.Config{
		Store:  predStore,
		Source: dataClient,
		Delay:  cfg.BackfillDelay,
		Logger: logger,
	})
	return job.Run(ctx)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
