// Package backfill fills real scores into predictions once their matches
// finish. It is run periodically (cron or a timer loop in cmd/backfill) and
// paces its upstream calls to stay under the provider's per-minute ceiling.
package backfill

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/models"
	"github.com/xgoalpro/prediction-api/internal/upstream"
)

// DefaultDelay paces upstream calls; the provider allows 10 per minute.
const DefaultDelay = 1200 * time.Millisecond

// Store is the persistence surface the job needs. The score write is the
// sentinel-guarded variant: rows a concurrent pass scored between the scan
// and the update must stay untouched.
type Store interface {
	ListUnscoredMatchIDs(ctx context.Context) ([]int64, error)
	BackfillPredictionScore(ctx context.Context, matchID int64, homeScore, awayScore int) (bool, error)
}

// ScoreSource resolves a match to its final result.
type ScoreSource interface {
	MatchDetail(ctx context.Context, matchID int64) (*models.Match, error)
}

// Config configures a backfill job.
type Config struct {
	Store  Store
	Source ScoreSource
	Delay  time.Duration
	Logger *zap.Logger

	// Sleep is the pacing clock; tests inject a recorder here.
	Sleep func(ctx context.Context, d time.Duration)
}

// Job scans sentinel-scored predictions and writes final results.
type Job struct {
	store  Store
	source ScoreSource
	delay  time.Duration
	logger *zap.SugaredLogger
	sleep  func(ctx context.Context, d time.Duration)
}

// New creates a backfill job.
func New(cfg Config) *Job {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = func(ctx context.Context, d time.Duration) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
			}
		}
	}
	return &Job{
		store:  cfg.Store,
		source: cfg.Source,
		delay:  cfg.Delay,
		logger: cfg.Logger.Sugar(),
		sleep:  cfg.Sleep,
	}
}

// Run performs one backfill pass. Only matches whose predictions still carry
// sentinel scores are scanned, and the write itself is sentinel-guarded, so
// a row another pass scored between the scan and the update is never
// overwritten. Upstream failures skip the match and continue; the pass only
// errors when the store scan itself fails or the context ends.
func (j *Job) Run(ctx context.Context) error {
	ids, err := j.store.ListUnscoredMatchIDs(ctx)
	if err != nil {
		return err
	}
	j.logger.Infow("Backfill pass started", "pending", len(ids))

	updated, skipped := 0, 0
	for i, id := range ids {
		if i > 0 {
			j.sleep(ctx, j.delay)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		detail, err := j.source.MatchDetail(ctx, id)
		if err != nil {
			if errors.Is(err, upstream.ErrRateLimited) {
				j.logger.Warnw("Backfill throttled, backing off", "match_id", id)
				j.sleep(ctx, j.delay)
			} else {
				j.logger.Warnw("Failed to fetch match result", "match_id", id, "error", err)
			}
			skipped++
			continue
		}

		ft := detail.Score.FullTime
		if detail.Status != models.StatusFinished || ft.Home == nil || ft.Away == nil {
			skipped++
			continue
		}

		ok, err := j.store.BackfillPredictionScore(ctx, id, *ft.Home, *ft.Away)
		if err != nil {
			j.logger.Warnw("Failed to update prediction score", "match_id", id, "error", err)
			skipped++
			continue
		}
		if ok {
			updated++
			j.logger.Infow("Backfilled match score", "match_id", id, "home", *ft.Home, "away", *ft.Away)
		}
	}

	j.logger.Infow("Backfill pass finished", "updated", updated, "skipped", skipped)
	return nil
}
