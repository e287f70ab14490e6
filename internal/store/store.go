package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/models"
)

// DefaultRating is assumed for teams without a stored rating.
const DefaultRating = 1500.0

const insertPredictionSQL = `
INSERT INTO predictions (
	match_id, model, home_id, home_name, home_xg,
	away_id, away_name, away_xg,
	home_p, draw_p, away_p
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (match_id, model) DO NOTHING
`

const selectPredictionsSQL = `
SELECT id, match_id, model, home_id, home_name, home_xg,
	away_id, away_name, away_xg,
	home_p, draw_p, away_p,
	real_home_score, real_away_score
FROM predictions
ORDER BY id
`

// Store provides typed prediction persistence on top of the resilient gateway.
type Store struct {
	gw     *Gateway
	logger *zap.SugaredLogger
}

// New creates a Store. The gateway must be initialized before operations run.
func New(gw *Gateway, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{gw: gw, logger: logger.Sugar()}
}

// GetRating returns the stored rating for a team, or DefaultRating when the
// team is unknown. Unknown teams are not an error.
func (s *Store) GetRating(ctx context.Context, team string) (float64, error) {
	rating := DefaultRating
	err := s.gw.Do(ctx, "get_rating", func(ctx context.Context) error {
		var v float64
		err := s.gw.Pool().QueryRow(ctx, `SELECT rating FROM ratings WHERE name = $1`, team).Scan(&v)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		rating = v
		return nil
	})
	return rating, err
}

// InsertPrediction writes a new prediction row. It returns true when a row
// was created and false, with no error and no mutation, when a prediction
// for (match_id, model) already exists. First writer wins; concurrent racers
// are resolved by the uniqueness constraint alone.
func (s *Store) InsertPrediction(ctx context.Context, p *models.PredictionRecord) (bool, error) {
	inserted := false
	err := s.gw.Do(ctx, "insert_prediction", func(ctx context.Context) error {
		tag, execErr := s.gw.Pool().Exec(ctx, insertPredictionSQL,
			p.MatchID, p.Model, p.HomeID, p.HomeName, p.HomeXG,
			p.AwayID, p.AwayName, p.AwayXG,
			p.HomeP, p.DrawP, p.AwayP,
		)
		if isUniqueViolation(execErr) {
			// Lost a race with another writer; the constraint kept the
			// first row, so treat this as the ignore path.
			return nil
		}
		if execErr != nil {
			return execErr
		}
		inserted = tag.RowsAffected() > 0
		return nil
	})
	return inserted, err
}

// UpdatePredictionWithScore records the real result for a match. It matches
// by match_id alone, so every model variant of the prediction receives the
// same scoreline. Returns true when at least one row was updated.
func (s *Store) UpdatePredictionWithScore(ctx context.Context, matchID int64, homeScore, awayScore int) (bool, error) {
	updated := false
	err := s.gw.Do(ctx, "update_prediction_with_score", func(ctx context.Context) error {
		tag, execErr := s.gw.Pool().Exec(ctx, `
			UPDATE predictions
			SET real_home_score = $1, real_away_score = $2
			WHERE match_id = $3
		`, homeScore, awayScore, matchID)
		if execErr != nil {
			return execErr
		}
		updated = tag.RowsAffected() > 0
		return nil
	})
	return updated, err
}

// BackfillPredictionScore records the real result for a match, touching only
// rows that still carry sentinel scores. Rows a concurrent pass already
// scored are left alone; the guard lives in the WHERE clause so the check
// and the write are one statement. Returns true when at least one row was
// updated.
func (s *Store) BackfillPredictionScore(ctx context.Context, matchID int64, homeScore, awayScore int) (bool, error) {
	updated := false
	err := s.gw.Do(ctx, "backfill_prediction_score", func(ctx context.Context) error {
		tag, execErr := s.gw.Pool().Exec(ctx, `
			UPDATE predictions
			SET real_home_score = $1, real_away_score = $2
			WHERE match_id = $3 AND real_home_score = -1 AND real_away_score = -1
		`, homeScore, awayScore, matchID)
		if execErr != nil {
			return execErr
		}
		updated = tag.RowsAffected() > 0
		return nil
	})
	return updated, err
}

// GetAllPredictions returns every stored prediction for downstream reporting.
func (s *Store) GetAllPredictions(ctx context.Context) ([]models.PredictionRecord, error) {
	var records []models.PredictionRecord
	err := s.gw.Do(ctx, "get_all_predictions", func(ctx context.Context) error {
		rows, queryErr := s.gw.Pool().Query(ctx, selectPredictionsSQL)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			var r models.PredictionRecord
			if scanErr := rows.Scan(
				&r.ID, &r.MatchID, &r.Model, &r.HomeID, &r.HomeName, &r.HomeXG,
				&r.AwayID, &r.AwayName, &r.AwayXG,
				&r.HomeP, &r.DrawP, &r.AwayP,
				&r.RealHomeScore, &r.RealAwayScore,
			); scanErr != nil {
				return scanErr
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListUnscoredMatchIDs returns the distinct match ids whose predictions still
// carry sentinel scores. The backfill job scans these.
func (s *Store) ListUnscoredMatchIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.gw.Do(ctx, "list_unscored", func(ctx context.Context) error {
		rows, queryErr := s.gw.Pool().Query(ctx, `
			SELECT DISTINCT match_id FROM predictions
			WHERE real_home_score = -1 AND real_away_score = -1
			ORDER BY match_id
		`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		ids = ids[:0]
		for rows.Next() {
			var id int64
			if scanErr := rows.Scan(&id); scanErr != nil {
				return scanErr
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
