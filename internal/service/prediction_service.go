package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/store"
)

type PredictionService struct {
	db          *sqlx.DB
	pools       *store.PoolStore
	matches     *store.MatchStore
	predictions *store.PredictionStore
}

func NewPredictionService(db *sqlx.DB, pools *store.PoolStore, matches *store.MatchStore, predictions *store.PredictionStore) *PredictionService {
	return &PredictionService{db: db, pools: pools, matches: matches, predictions: predictions}
}

// SubmitPredictions upserts the participant's picks, keyed by match id.
// Only allowed while the pool is open; after a reopen it works again.
// Resubmitting a match replaces the earlier pick, nothing is appended.
func (s *PredictionService) SubmitPredictions(ctx context.Context, poolID string, participantID uuid.UUID, picks map[string]pool.Pick) error {
	p, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if !p.Status.CanSubmitPredictions() {
		return pool.ErrPoolLocked
	}

	matches, err := s.matches.GetMatches(ctx, poolID)
	if err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}
	inPool := make(map[string]uuid.UUID, len(matches))
	for _, m := range matches {
		inPool[m.ID.String()] = m.ID
	}

	for matchIDStr, pick := range picks {
		matchID, ok := inPool[matchIDStr]
		if !ok || !pick.Valid() {
			continue
		}
		prediction := &pool.Prediction{
			ID:            uuid.New(),
			ParticipantID: participantID,
			MatchID:       matchID,
			Pick:          pick,
		}
		if err := s.predictions.UpsertPrediction(ctx, prediction); err != nil {
			return fmt.Errorf("failed to save prediction: %w", err)
		}
	}
	return nil
}

func (s *PredictionService) ListForParticipant(ctx context.Context, participantID uuid.UUID) ([]pool.Prediction, error) {
	return s.predictions.GetPredictionsForParticipant(ctx, participantID)
}

type PickCounts struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Summary counts picks per side for every match in the pool. Safe to show
// at any time since it reveals no individual's pick.
func (s *PredictionService) Summary(ctx context.Context, poolID string) (map[string]PickCounts, error) {
	predictions, err := s.predictions.GetPredictionsForPool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]PickCounts)
	for _, p := range predictions {
		counts := summary[p.MatchID.String()]
		switch p.Pick {
		case pool.PickA:
			counts.A++
		case pool.PickB:
			counts.B++
		}
		summary[p.MatchID.String()] = counts
	}
	return summary, nil
}

// AllPicks returns every participant's picks, participant id -> match id ->
// pick. The store is always complete; whether callers may see this is a
// presentation rule (hidden until the pool locks), enforced at the handler.
func (s *PredictionService) AllPicks(ctx context.Context, poolID string) (map[string]map[string]pool.Pick, error) {
	predictions, err := s.predictions.GetPredictionsForPool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	all := make(map[string]map[string]pool.Pick)
	for _, p := range predictions {
		byMatch := all[p.ParticipantID.String()]
		if byMatch == nil {
			byMatch = make(map[string]pool.Pick)
			all[p.ParticipantID.String()] = byMatch
		}
		byMatch[p.MatchID.String()] = p.Pick
	}
	return all, nil
}
