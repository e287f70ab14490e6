// Package store persists predictions and team ratings in Postgres. Every
// round trip goes through the resilient gateway, which retries transient
// connection failures with linear backoff over a bounded connection pool.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus metrics
var (
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xgoalpro_storage_retries_total",
		Help: "Total number of retried storage operations",
	})

	retriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xgoalpro_storage_retries_exhausted_total",
		Help: "Total number of storage operations that failed after all retries",
	})
)

// PgPool is the subset of pgxpool.Pool the store uses.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id BIGSERIAL PRIMARY KEY,
	match_id BIGINT NOT NULL,
	model TEXT NOT NULL,
	home_id BIGINT NOT NULL,
	home_name TEXT NOT NULL,
	home_xg DOUBLE PRECISION NOT NULL,
	away_id BIGINT NOT NULL,
	away_name TEXT NOT NULL,
	away_xg DOUBLE PRECISION NOT NULL,
	home_p DOUBLE PRECISION NOT NULL,
	draw_p DOUBLE PRECISION NOT NULL,
	away_p DOUBLE PRECISION NOT NULL,
	real_home_score INTEGER DEFAULT -1,
	real_away_score INTEGER DEFAULT -1,
	UNIQUE (match_id, model)
);

CREATE INDEX IF NOT EXISTS idx_predictions_match_model
ON predictions (match_id, model);

CREATE TABLE IF NOT EXISTS ratings (
	name TEXT PRIMARY KEY,
	rating DOUBLE PRECISION NOT NULL
);
`

// GatewayConfig configures the resilient storage gateway.
type GatewayConfig struct {
	URL        string
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *zap.Logger

	// Sleep is the backoff clock; tests inject a recorder here.
	Sleep func(ctx context.Context, d time.Duration)
	// Pool short-circuits dialing when set (tests, shared pools).
	Pool PgPool
}

// Gateway wraps every operation against the persistent store in
// retry-with-linear-backoff. Connection acquisition is pooled and the pool is
// lazily, idempotently initialized by Init.
type Gateway struct {
	url        string
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.SugaredLogger
	sleep      func(ctx context.Context, d time.Duration)

	mu          sync.Mutex
	initialized bool
	pool        PgPool
	closeFn     func()
}

// NewGateway creates a gateway. The pool is not dialed until Init.
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Gateway{
		url:        cfg.URL,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		logger:     cfg.Logger.Sugar(),
		sleep:      cfg.Sleep,
		pool:       cfg.Pool,
	}
}

// Init dials the connection pool and ensures the schema exists. It is
// idempotent: a second call on an initialized gateway is a no-op.
func (g *Gateway) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return nil
	}

	if g.pool == nil {
		err := g.Do(ctx, "connect", func(ctx context.Context) error {
			pcfg, err := pgxpool.ParseConfig(g.url)
			if err != nil {
				return err
			}
			pcfg.MinConns = 1
			pcfg.MaxConns = 10
			pcfg.ConnConfig.ConnectTimeout = 30 * time.Second

			pool, err := pgxpool.NewWithConfig(ctx, pcfg)
			if err != nil {
				return err
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				return err
			}
			g.pool = pool
			g.closeFn = pool.Close
			return nil
		})
		if err != nil {
			return err
		}
	}

	err := g.Do(ctx, "init_schema", func(ctx context.Context) error {
		_, execErr := g.pool.Exec(ctx, schema)
		return execErr
	})
	if err != nil {
		return err
	}

	g.initialized = true
	g.logger.Infow("Storage gateway initialized", "maxRetries", g.maxRetries, "baseDelay", g.baseDelay)
	return nil
}

// Do runs op, retrying transient connection failures up to maxRetries times
// with linear backoff (baseDelay × attempt number). After exhaustion the last
// error is returned. Non-connection failures pass through immediately.
func (g *Gateway) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		last = err
		if attempt < g.maxRetries {
			wait := g.baseDelay * time.Duration(attempt)
			retriesTotal.Inc()
			g.logger.Warnw("Storage operation failed, retrying",
				"op", name,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
			g.sleep(ctx, wait)
		}
	}
	retriesExhausted.Inc()
	g.logger.Errorw("Storage operation failed after retries",
		"op", name,
		"attempts", g.maxRetries,
		"error", last,
	)
	return last
}

// Pool exposes the underlying pool for store operations and health checks.
func (g *Gateway) Pool() PgPool {
	return g.pool
}

// Close releases the connection pool.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closeFn != nil {
		g.closeFn()
		g.closeFn = nil
	}
	g.initialized = false
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
