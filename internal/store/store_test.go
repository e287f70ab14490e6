package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/models"
)

type MockRows struct {
	pgx.Rows
	rows     [][]any
	idx      int
	scanErr  error
	closed   bool
	finalErr error
}

func (m *MockRows) Next() bool {
	if m.idx >= len(m.rows) {
		return false
	}
	m.idx++
	return true
}

func (m *MockRows) Scan(dest ...any) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	row := m.rows[m.idx-1]
	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = row[i].(int64)
		case *int:
			*v = row[i].(int)
		case *string:
			*v = row[i].(string)
		case *float64:
			*v = row[i].(float64)
		}
	}
	return nil
}

func (m *MockRows) Close() { m.closed = true }
func (m *MockRows) Err() error { return m.finalErr }

func newTestStore(pool *MockPool) *Store {
	gw := NewGateway(GatewayConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Logger:     zap.NewNop(),
		Sleep:      func(ctx context.Context, d time.Duration) {},
		Pool:       pool,
	})
	return New(gw, zap.NewNop())
}

func TestGetRatingDefaultsWhenUnknown(t *testing.T) {
	pool := &MockPool{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &MockRow{ScanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	s := newTestStore(pool)

	rating, err := s.GetRating(context.Background(), "Arsenal FC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rating != DefaultRating {
		t.Errorf("expected default rating %v, got %v", DefaultRating, rating)
	}
}

func TestGetRatingReturnsStoredValue(t *testing.T) {
	pool := &MockPool{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &MockRow{ScanFunc: func(dest ...any) error {
				*(dest[0].(*float64)) = 1742.5
				return nil
			}}
		},
	}
	s := newTestStore(pool)

	rating, err := s.GetRating(context.Background(), "Liverpool FC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rating != 1742.5 {
		t.Errorf("expected 1742.5, got %v", rating)
	}
}

func TestInsertPredictionReportsCreation(t *testing.T) {
	pool := &MockPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}
	s := newTestStore(pool)

	inserted, err := s.InsertPrediction(context.Background(), &models.PredictionRecord{MatchID: 42, Model: "XGB"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for a fresh row")
	}
}

func TestInsertPredictionIgnoresDuplicate(t *testing.T) {
	pool := &MockPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			// ON CONFLICT DO NOTHING reports zero affected rows.
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		},
	}
	s := newTestStore(pool)

	inserted, err := s.InsertPrediction(context.Background(), &models.PredictionRecord{MatchID: 42, Model: "XGB"})
	if err != nil {
		t.Fatalf("duplicate insert must not error, got %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for an existing row")
	}
}

func TestInsertPredictionTreatsRaceAsIgnore(t *testing.T) {
	pool := &MockPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", Message: "duplicate key"}
		},
	}
	s := newTestStore(pool)

	inserted, err := s.InsertPrediction(context.Background(), &models.PredictionRecord{MatchID: 42, Model: "XGB"})
	if err != nil {
		t.Fatalf("unique violation must be benign, got %v", err)
	}
	if inserted {
		t.Error("expected inserted=false when losing the race")
	}
}

func TestUpdatePredictionWithScore(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected bool
	}{
		{"Match Found", "UPDATE 4", true},
		{"No Matching Rows", "UPDATE 0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &MockPool{
				ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
					return pgconn.NewCommandTag(tt.tag), nil
				},
			}
			s := newTestStore(pool)

			updated, err := s.UpdatePredictionWithScore(context.Background(), 42, 2, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated != tt.expected {
				t.Errorf("expected updated=%v, got %v", tt.expected, updated)
			}
		})
	}
}

func TestBackfillPredictionScoreGuardsScoredRows(t *testing.T) {
	var gotSQL string
	pool := &MockPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	s := newTestStore(pool)

	updated, err := s.BackfillPredictionScore(context.Background(), 42, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("expected updated=false when every row is already scored")
	}
	// The sentinel guard must live in the statement itself so the check and
	// the write cannot be split by a concurrent pass.
	if !strings.Contains(gotSQL, "real_home_score = -1") || !strings.Contains(gotSQL, "real_away_score = -1") {
		t.Errorf("guarded update missing sentinel predicates: %s", gotSQL)
	}
}

func TestUpdatePredictionWithScoreIsUnguarded(t *testing.T) {
	var gotSQL string
	pool := &MockPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.NewCommandTag("UPDATE 4"), nil
		},
	}
	s := newTestStore(pool)

	if _, err := s.UpdatePredictionWithScore(context.Background(), 42, 2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Matches by match_id alone: every model variant gets the scoreline.
	if strings.Contains(gotSQL, "real_home_score = -1") {
		t.Errorf("plain score update must not carry the sentinel guard: %s", gotSQL)
	}
}

func TestGetAllPredictions(t *testing.T) {
	rows := &MockRows{rows: [][]any{
		{int64(1), int64(100), "XGB", int64(10), "Arsenal FC", 1.8,
			int64(20), "Chelsea FC", 0.9,
			0.52, 0.26, 0.22, -1, -1},
		{int64(2), int64(101), "MLP", int64(30), "Everton FC", 1.1,
			int64(40), "Fulham FC", 1.2,
			0.33, 0.30, 0.37, 2, 2},
	}}
	pool := &MockPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return rows, nil
		},
	}
	s := newTestStore(pool)

	records, err := s.GetAllPredictions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Model != "XGB" || records[0].HomeName != "Arsenal FC" {
		t.Errorf("first record mismatch: %+v", records[0])
	}
	if records[1].RealHomeScore != 2 || records[1].RealAwayScore != 2 {
		t.Errorf("expected backfilled scores, got %+v", records[1])
	}
	if !rows.closed {
		t.Error("expected rows to be closed")
	}
}

func TestListUnscoredMatchIDs(t *testing.T) {
	rows := &MockRows{rows: [][]any{{int64(100)}, {int64(105)}}}
	pool := &MockPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return rows, nil
		},
	}
	s := newTestStore(pool)

	ids, err := s.ListUnscoredMatchIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 100 || ids[1] != 105 {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestGetAllPredictionsQueryError(t *testing.T) {
	boom := errors.New("relation does not exist")
	pool := &MockPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return nil, boom
		},
	}
	s := newTestStore(pool)

	if _, err := s.GetAllPredictions(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected query error passthrough, got %v", err)
	}
}
