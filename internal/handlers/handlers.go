package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/ensemble"
	"github.com/xgoalpro/prediction-api/internal/models"
	"github.com/xgoalpro/prediction-api/internal/pipeline"
	"github.com/xgoalpro/prediction-api/internal/store"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// PredictionRunner runs the prediction pipeline.
type PredictionRunner interface {
	Predict(ctx context.Context, req pipeline.Request) pipeline.Result
}

// CompetitionData serves the browse endpoints backing the desktop shell.
type CompetitionData interface {
	Leagues(ctx context.Context) ([]models.League, error)
	Teams(ctx context.Context, leagueCode string) ([]models.Team, string, error)
	UpcomingMatches(ctx context.Context, teamID int64) ([]models.UpcomingMatch, error)
	HeadToHead(ctx context.Context, matchID int64) ([]models.H2HMatch, error)
}

// PredictionReader is the bulk read surface for reporting collaborators.
type PredictionReader interface {
	GetAllPredictions(ctx context.Context) ([]models.PredictionRecord, error)
}

type Config struct {
	Pipeline       PredictionRunner
	Data           CompetitionData
	Store          PredictionReader
	Registry       *ensemble.Registry
	Postgres       store.PgPool
	Redis          *redis.Client
	AllowedOrigins []string
	Logger         *zap.Logger
}

type Handler struct {
	pipeline       PredictionRunner
	data           CompetitionData
	store          PredictionReader
	registry       *ensemble.Registry
	pg             store.PgPool
	redis          *redis.Client
	allowedOrigins []string
	logger         *zap.SugaredLogger
	validator      *validator.Validate
}

func New(cfg Config) *Handler {
	return &Handler{
		pipeline:       cfg.Pipeline,
		data:           cfg.Data,
		store:          cfg.Store,
		registry:       cfg.Registry,
		pg:             cfg.Postgres,
		redis:          cfg.Redis,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         cfg.Logger.Sugar(),
		validator:      validator.New(),
	}
}

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leagues", h.GetLeagues)
		r.Get("/leagues/{code}/teams", h.GetTeams)
		r.Get("/teams/{teamID}/matches", h.GetUpcomingMatches)
		r.Get("/matches/{matchID}/h2h", h.GetHeadToHead)
		r.Post("/predictions", h.CreatePrediction)
		r.Get("/predictions", h.ListPredictions)
	})

	return r
}
