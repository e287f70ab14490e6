package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/ensemble"
	"github.com/xgoalpro/prediction-api/internal/models"
	"github.com/xgoalpro/prediction-api/internal/upstream"
	"github.com/xgoalpro/prediction-api/internal/worker"
)

// Mocks

type MockStore struct {
	GetRatingFunc        func(ctx context.Context, team string) (float64, error)
	InsertPredictionFunc func(ctx context.Context, rec *models.PredictionRecord) (bool, error)
	inserted             []*models.PredictionRecord
}

func (m *MockStore) GetRating(ctx context.Context, team string) (float64, error) {
	if m.GetRatingFunc != nil {
		return m.GetRatingFunc(ctx, team)
	}
	return 1500, nil
}

func (m *MockStore) InsertPrediction(ctx context.Context, rec *models.PredictionRecord) (bool, error) {
	m.inserted = append(m.inserted, rec)
	if m.InsertPredictionFunc != nil {
		return m.InsertPredictionFunc(ctx, rec)
	}
	return true, nil
}

type MockGateway struct {
	MatchDetailFunc   func(ctx context.Context, matchID int64) (*models.Match, error)
	RecentMatchesFunc func(ctx context.Context, teamID int64) ([]models.Match, error)
}

func (m *MockGateway) MatchDetail(ctx context.Context, matchID int64) (*models.Match, error) {
	if m.MatchDetailFunc != nil {
		return m.MatchDetailFunc(ctx, matchID)
	}
	return &models.Match{
		ID:       matchID,
		HomeTeam: models.MatchTeam{ID: 10, Name: "Arsenal"},
		AwayTeam: models.MatchTeam{ID: 20, Name: "Chelsea"},
	}, nil
}

func (m *MockGateway) RecentMatches(ctx context.Context, teamID int64) ([]models.Match, error) {
	if m.RecentMatchesFunc != nil {
		return m.RecentMatchesFunc(ctx, teamID)
	}
	return nil, nil
}

type MockPool struct {
	SubmitFunc func(features []float64, sel ensemble.Selection) <-chan worker.Outcome
}

func (m *MockPool) Submit(features []float64, sel ensemble.Selection) <-chan worker.Outcome {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(features, sel)
	}
	ch := make(chan worker.Outcome, 1)
	ch <- worker.Outcome{HomeXG: 1.4, AwayXG: 0.9}
	return ch
}

func testRegistry(t *testing.T) *ensemble.Registry {
	t.Helper()
	reg, err := ensemble.NewRegistry("scaler.json",
		ensemble.Entry{Name: "XGB"},
		ensemble.Entry{Name: "MLP"},
	)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func newTestPipeline(t *testing.T, store *MockStore, gw *MockGateway, pool *MockPool) *Pipeline {
	t.Helper()
	return New(Config{
		Store:    store,
		Gateway:  gw,
		Pool:     pool,
		Registry: testRegistry(t),
		MaxGoals: 10,
		Logger:   zap.NewNop(),
	})
}

// Tests

func TestPredictHappyPath(t *testing.T) {
	store := &MockStore{}
	p := newTestPipeline(t, store, &MockGateway{}, &MockPool{})

	res := p.Predict(context.Background(), Request{
		MatchID: 100, HomeID: 10, AwayID: 20, Models: []bool{true, false},
	})

	if !res.OK {
		t.Fatalf("expected success, got messages %v", res.Messages)
	}
	if res.Prediction == nil {
		t.Fatal("expected a prediction payload")
	}
	if res.Prediction.RunID == "" {
		t.Error("expected a run id")
	}
	if res.Prediction.ModelKey != "10" {
		t.Errorf("expected model key 10, got %q", res.Prediction.ModelKey)
	}
	if res.Prediction.HomeName != "Arsenal" || res.Prediction.AwayName != "Chelsea" {
		t.Errorf("team names not propagated: %+v", res.Prediction)
	}
	if res.Prediction.HomeXG != 1.4 || res.Prediction.AwayXG != 0.9 {
		t.Errorf("expected goals not propagated: %+v", res.Prediction)
	}
	total := res.Prediction.HomeWinP + res.Prediction.DrawP + res.Prediction.AwayWinP
	if total < 0.99 || total > 1.0+1e-9 {
		t.Errorf("probabilities do not sum near 1: %v", total)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(store.inserted))
	}
	rec := store.inserted[0]
	if rec.Model != "10" || rec.MatchID != 100 {
		t.Errorf("unexpected record identity: %+v", rec)
	}
	if rec.RealHomeScore != models.SentinelScore || rec.RealAwayScore != models.SentinelScore {
		t.Errorf("new record must carry sentinel scores: %+v", rec)
	}
}

func TestPredictRejectsInvalidSelection(t *testing.T) {
	store := &MockStore{}
	p := newTestPipeline(t, store, &MockGateway{}, &MockPool{})

	tests := []struct {
		name   string
		models []bool
	}{
		{"None Selected", []bool{false, false}},
		{"Wrong Length", []bool{true}},
		{"Missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Predict(context.Background(), Request{MatchID: 1, Models: tt.models})
			if res.OK {
				t.Fatal("expected rejection")
			}
			if !res.Rejected {
				t.Error("contract violations must be marked rejected")
			}
			if len(res.Messages) == 0 {
				t.Error("expected a user-facing message")
			}
		})
	}
	if len(store.inserted) != 0 {
		t.Errorf("rejected runs must not insert, got %d", len(store.inserted))
	}
}

func TestPredictRateLimitedCarriesGuidance(t *testing.T) {
	gw := &MockGateway{
		MatchDetailFunc: func(ctx context.Context, matchID int64) (*models.Match, error) {
			return nil, fmt.Errorf("status 429: %w", upstream.ErrRateLimited)
		},
	}
	p := newTestPipeline(t, &MockStore{}, gw, &MockPool{})

	res := p.Predict(context.Background(), Request{MatchID: 1, Models: []bool{true, true}})
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Rejected {
		t.Error("downstream failures must not be marked rejected")
	}
	if len(res.Messages) != 1 || res.Messages[0] != upstream.RateLimitGuidance {
		t.Errorf("expected rate limit guidance, got %v", res.Messages)
	}
}

func TestPredictWindowFetchFailureAbortsRun(t *testing.T) {
	store := &MockStore{}
	gw := &MockGateway{
		RecentMatchesFunc: func(ctx context.Context, teamID int64) ([]models.Match, error) {
			if teamID == 20 {
				return nil, errors.New("upstream 500")
			}
			return nil, nil
		},
	}
	p := newTestPipeline(t, store, gw, &MockPool{})

	res := p.Predict(context.Background(), Request{
		MatchID: 1, HomeID: 10, AwayID: 20, Models: []bool{true, true},
	})
	if res.OK {
		t.Fatal("expected failure")
	}
	if len(store.inserted) != 0 {
		t.Error("failed runs must not insert")
	}
	if len(res.Messages) != 1 {
		t.Fatalf("expected one message, got %v", res.Messages)
	}
	// User-facing text, not the raw upstream error.
	if res.Messages[0] == "upstream 500" {
		t.Errorf("raw error leaked to the user: %v", res.Messages)
	}
}

func TestPredictInferenceFailure(t *testing.T) {
	pool := &MockPool{
		SubmitFunc: func(features []float64, sel ensemble.Selection) <-chan worker.Outcome {
			ch := make(chan worker.Outcome, 1)
			ch <- worker.Outcome{Err: errors.New("artifact corrupt")}
			return ch
		},
	}
	p := newTestPipeline(t, &MockStore{}, &MockGateway{}, pool)

	res := p.Predict(context.Background(), Request{
		MatchID: 1, HomeID: 10, AwayID: 20, Models: []bool{true, true},
	})
	if res.OK {
		t.Fatal("expected failure")
	}
}

func TestPredictDuplicateInsertStillSucceeds(t *testing.T) {
	store := &MockStore{
		InsertPredictionFunc: func(ctx context.Context, rec *models.PredictionRecord) (bool, error) {
			return false, nil
		},
	}
	p := newTestPipeline(t, store, &MockGateway{}, &MockPool{})

	res := p.Predict(context.Background(), Request{
		MatchID: 1, HomeID: 10, AwayID: 20, Models: []bool{true, true},
	})
	if !res.OK {
		t.Fatalf("duplicate insert must not fail the run: %v", res.Messages)
	}
}

func TestPredictRatingsFeedFeatureVector(t *testing.T) {
	store := &MockStore{
		GetRatingFunc: func(ctx context.Context, team string) (float64, error) {
			if team == "Arsenal" {
				return 1700, nil
			}
			return 1400, nil
		},
	}
	var captured []float64
	pool := &MockPool{
		SubmitFunc: func(features []float64, sel ensemble.Selection) <-chan worker.Outcome {
			captured = features
			ch := make(chan worker.Outcome, 1)
			ch <- worker.Outcome{HomeXG: 1, AwayXG: 1}
			return ch
		},
	}
	p := newTestPipeline(t, store, &MockGateway{}, pool)

	res := p.Predict(context.Background(), Request{
		MatchID: 1, HomeID: 10, AwayID: 20, Models: []bool{true, true},
	})
	if !res.OK {
		t.Fatalf("unexpected failure: %v", res.Messages)
	}
	if len(captured) != 14 {
		t.Fatalf("expected 14 features, got %d", len(captured))
	}
	if captured[0] != 1700 || captured[1] != 1400 {
		t.Errorf("ratings not in vector head: %v", captured[:2])
	}
}
