package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
)

type PredictionStore struct {
	db *sqlx.DB
}

const (
	// One live prediction per (participant, match); re-submitting replaces
	// the pick rather than appending.
	upsertPredictionQuery = `INSERT INTO predictions (id, participant_id, match_id, pick)
        VALUES (:id, :participant_id, :match_id, :pick)
        ON CONFLICT (participant_id, match_id) DO UPDATE SET pick = excluded.pick`
	getPredictionsForPoolQuery = `
        SELECT p.* FROM predictions p
        JOIN matches m ON m.id = p.match_id
        WHERE m.pool_id = ?
    `
)

func NewPredictionStore(db *sqlx.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

func (s *PredictionStore) UpsertPrediction(ctx context.Context, p *pool.Prediction) error {
	_, err := s.db.NamedExecContext(ctx, upsertPredictionQuery, p)
	return err
}

func (s *PredictionStore) GetPredictionsForParticipant(ctx context.Context, participantID interface{}) ([]pool.Prediction, error) {
	var predictions []pool.Prediction
	err := s.db.SelectContext(ctx, &predictions,
		"SELECT * FROM predictions WHERE participant_id = ?", participantID)
	return predictions, err
}

func (s *PredictionStore) GetPredictionsForPool(ctx context.Context, poolID string) ([]pool.Prediction, error) {
	var predictions []pool.Prediction
	err := s.db.SelectContext(ctx, &predictions, getPredictionsForPoolQuery, poolID)
	return predictions, err
}
