package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/config"
	"github.com/xgoalpro/prediction-api/internal/ensemble"
	"github.com/xgoalpro/prediction-api/internal/handlers"
	"github.com/xgoalpro/prediction-api/internal/pipeline"
	"github.com/xgoalpro/prediction-api/internal/store"
	"github.com/xgoalpro/prediction-api/internal/upstream"
	"github.com/xgoalpro/prediction-api/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
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
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
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

	// Optional response cache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			sugar.Warnw("Redis unreachable, running without cache", "error", err)
			redisClient = nil
		}
	}

	// Competition data
	dataClient := upstream.New(upstream.Config{
		BaseURL:     cfg.FootballDataURL,
		Token:       cfg.FootballDataToken,
		HTTPTimeout: cfg.UpstreamTimeout,
		LeagueCodes: cfg.LeagueCodes,
		Redis:       redisClient,
		CacheTTL:    cfg.CacheTTL,
		Logger:      logger,
	})

	// Inference
	registry, err := ensemble.DefaultRegistry(cfg.ModelDir)
	if err != nil {
		return fmt.Errorf("build model registry: %w", err)
	}
	predictor := ensemble.NewPredictor(registry, logger)
	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
		Predictor:   predictor,
		Logger:      logger,
	})
	pool.Start(ctx)
	defer pool.Stop()

	pipe := pipeline.New(pipeline.Config{
		Store:    predStore,
		Gateway:  dataClient,
		Pool:     pool,
		Registry: registry,
		MaxGoals: cfg.MaxGoals,
		Logger:   logger,
	})

	handler := handlers.New(handlers.Config{
		Pipeline:       pipe,
		Data:           dataClient,
		Store:          predStore,
		Registry:       registry,
		Postgres:       gateway.Pool(),
		Redis:          redisClient,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	sugar.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
