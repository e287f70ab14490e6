// Package pipeline sequences a full prediction run: ratings lookup, fan-out
// acquisition of both teams' match windows, feature extraction, ensemble
// inference on the worker pool, outcome probability derivation, and the
// idempotent insert. Every run, success or failure, comes back as a uniform
// Result; no error crosses the pipeline boundary uncaught.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xgoalpro/prediction-api/internal/ensemble"
	"github.com/xgoalpro/prediction-api/internal/features"
	"github.com/xgoalpro/prediction-api/internal/models"
	"github.com/xgoalpro/prediction-api/internal/outcome"
	"github.com/xgoalpro/prediction-api/internal/upstream"
	"github.com/xgoalpro/prediction-api/internal/worker"
)

// Prometheus metrics
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xgoalpro_pipeline_runs_total",
		Help: "Total number of prediction pipeline runs by outcome",
	}, []string{"outcome"})
)

// PredictionStore is the persistence surface the pipeline needs.
type PredictionStore interface {
	GetRating(ctx context.Context, team string) (float64, error)
	InsertPrediction(ctx context.Context, rec *models.PredictionRecord) (bool, error)
}

// DataGateway fetches competition data from the upstream provider.
type DataGateway interface {
	MatchDetail(ctx context.Context, matchID int64) (*models.Match, error)
	RecentMatches(ctx context.Context, teamID int64) ([]models.Match, error)
}

// InferencePool dispatches ensemble inference off the request path.
type InferencePool interface {
	Submit(features []float64, sel ensemble.Selection) <-chan worker.Outcome
}

// Config wires the pipeline's collaborators.
type Config struct {
	Store    PredictionStore
	Gateway  DataGateway
	Pool     InferencePool
	Registry *ensemble.Registry
	MaxGoals int
	Logger   *zap.Logger
}

// Pipeline orchestrates prediction runs.
type Pipeline struct {
	store    PredictionStore
	gateway  DataGateway
	pool     InferencePool
	registry *ensemble.Registry
	maxGoals int
	logger   *zap.SugaredLogger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.MaxGoals <= 0 {
		cfg.MaxGoals = outcome.DefaultMaxGoals
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pipeline{
		store:    cfg.Store,
		gateway:  cfg.Gateway,
		pool:     cfg.Pool,
		registry: cfg.Registry,
		maxGoals: cfg.MaxGoals,
		logger:   cfg.Logger.Sugar(),
	}
}

// Request identifies the match to predict and the ensemble members to use.
type Request struct {
	MatchID int64
	HomeID  int64
	AwayID  int64
	Models  []bool
}

// Result is the uniform two-part outcome of a run. When OK is false,
// Messages carries short user-facing text instead of raw internal errors.
// Rejected marks a caller contract violation (an invalid model selection)
// as opposed to a downstream failure, so transports can answer with a
// client-error status.
type Result struct {
	OK         bool               `json:"ok"`
	Rejected   bool               `json:"-"`
	Prediction *models.Prediction `json:"prediction,omitempty"`
	Messages   []string           `json:"messages,omitempty"`
}

// Predict runs the full pipeline for one match. Any stage failure aborts the
// remaining stages.
func (p *Pipeline) Predict(ctx context.Context, req Request) Result {
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID, "match_id", req.MatchID)

	sel, err := ensemble.NewSelection(p.registry, req.Models)
	if err != nil {
		log.Warnw("Rejected model selection", "error", err)
		runsTotal.WithLabelValues("rejected").Inc()
		return Result{OK: false, Rejected: true, Messages: []string{err.Error()}}
	}

	detail, err := p.gateway.MatchDetail(ctx, req.MatchID)
	if err != nil {
		return p.fail(log, "resolve the match", err)
	}
	homeName := detail.HomeTeam.Name
	awayName := detail.AwayTeam.Name

	homeRating, err := p.store.GetRating(ctx, homeName)
	if err != nil {
		return p.fail(log, "load team ratings", err)
	}
	awayRating, err := p.store.GetRating(ctx, awayName)
	if err != nil {
		return p.fail(log, "load team ratings", err)
	}

	// Fan out the two window fetches; either branch failing fails the run.
	var homeWindow, awayWindow []models.Match
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, fetchErr := p.gateway.RecentMatches(gctx, req.HomeID)
		if fetchErr != nil {
			return fmt.Errorf("home window: %w", fetchErr)
		}
		homeWindow = m
		return nil
	})
	g.Go(func() error {
		m, fetchErr := p.gateway.RecentMatches(gctx, req.AwayID)
		if fetchErr != nil {
			return fmt.Errorf("away window: %w", fetchErr)
		}
		awayWindow = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return p.fail(log, "fetch recent form", err)
	}

	homeForm := features.Extract(req.HomeID, homeWindow)
	awayForm := features.Extract(req.AwayID, awayWindow)
	vector := features.Vector(homeRating, awayRating, homeForm, awayForm)

	out := <-p.pool.Submit(vector, sel)
	if out.Err != nil {
		return p.fail(log, "run the prediction models", out.Err)
	}

	probs := outcome.Derive(out.HomeXG, out.AwayXG, p.maxGoals)

	rec := &models.PredictionRecord{
		MatchID:       req.MatchID,
		Model:         sel.Key(),
		HomeID:        req.HomeID,
		HomeName:      homeName,
		HomeXG:        out.HomeXG,
		AwayID:        req.AwayID,
		AwayName:      awayName,
		AwayXG:        out.AwayXG,
		HomeP:         probs.HomeWin,
		DrawP:         probs.Draw,
		AwayP:         probs.AwayWin,
		RealHomeScore: models.SentinelScore,
		RealAwayScore: models.SentinelScore,
	}

	// The write is detached from the request context: an abandoned caller
	// must not abort a completed prediction.
	inserted, err := p.store.InsertPrediction(context.Background(), rec)
	if err != nil {
		return p.fail(log, "save the prediction", err)
	}
	if !inserted {
		log.Infow("Prediction already recorded", "model", sel.Key())
	}

	runsTotal.WithLabelValues("success").Inc()
	log.Infow("Prediction complete",
		"model", sel.Key(),
		"members", sel.Count(),
		"homeXG", out.HomeXG,
		"awayXG", out.AwayXG,
	)

	return Result{OK: true, Prediction: &models.Prediction{
		RunID:    runID,
		MatchID:  req.MatchID,
		ModelKey: sel.Key(),
		HomeID:   req.HomeID,
		HomeName: homeName,
		AwayID:   req.AwayID,
		AwayName: awayName,
		HomeXG:   out.HomeXG,
		AwayXG:   out.AwayXG,
		HomeWinP: probs.HomeWin,
		DrawP:    probs.Draw,
		AwayWinP: probs.AwayWin,
	}}
}

// fail classifies a stage error into the uniform failure result. Rate-limit
// conditions carry the provider's fixed guidance text; everything else maps
// to a short message naming the stage, with the raw error kept in the logs.
func (p *Pipeline) fail(log *zap.SugaredLogger, stage string, err error) Result {
	if errors.Is(err, upstream.ErrRateLimited) {
		log.Warnw("Prediction rate limited", "stage", stage)
		runsTotal.WithLabelValues("rate_limited").Inc()
		return failure(upstream.RateLimitGuidance)
	}
	log.Errorw("Prediction stage failed", "stage", stage, "error", err)
	runsTotal.WithLabelValues("failure").Inc()
	return failure(fmt.Sprintf("Could not %s – please try again later.", stage))
}

func failure(messages ...string) Result {
	return Result{OK: false, Messages: messages}
}
