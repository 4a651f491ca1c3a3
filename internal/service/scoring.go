package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/store"
)

type LeaderboardEntry struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Total         float64   `json:"total"`
	Rank          int       `json:"rank"`
}

// ScoringService derives standings from settled results. Nothing is
// cached: every call recomputes from current matches and predictions, so
// correcting a result immediately moves the board.
type ScoringService struct {
	db           *sqlx.DB
	matches      *store.MatchStore
	participants *store.ParticipantStore
	predictions  *store.PredictionStore
}

func NewScoringService(db *sqlx.DB, matches *store.MatchStore, participants *store.ParticipantStore, predictions *store.PredictionStore) *ScoringService {
	return &ScoringService{db: db, matches: matches, participants: participants, predictions: predictions}
}

func (s *ScoringService) Leaderboard(ctx context.Context, poolID string) ([]LeaderboardEntry, error) {
	participants, err := s.participants.GetParticipants(ctx, poolID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matches.GetMatches(ctx, poolID)
	if err != nil {
		return nil, err
	}
	predictions, err := s.predictions.GetPredictionsForPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return ComputeLeaderboard(participants, matches, predictions), nil
}

// ComputeLeaderboard is pure: the same inputs always produce the same
// board. A correct pick earns side odds x multiplier (odds default to 1.0);
// incorrect picks, draws, unmade predictions and unset results earn zero.
// Equal totals share a rank, the next lower total takes the following rank.
func ComputeLeaderboard(participants []pool.Participant, matches []pool.Match, predictions []pool.Prediction) []LeaderboardEntry {
	matchesByID := make(map[uuid.UUID]*pool.Match, len(matches))
	for i := range matches {
		matchesByID[matches[i].ID] = &matches[i]
	}

	totals := make(map[uuid.UUID]float64, len(participants))
	for _, p := range predictions {
		m, ok := matchesByID[p.MatchID]
		if !ok {
			continue
		}
		totals[p.ParticipantID] += m.Score(p.Pick)
	}

	entries := make([]LeaderboardEntry, 0, len(participants))
	for _, participant := range participants {
		entries = append(entries, LeaderboardEntry{
			ParticipantID: participant.ID,
			DisplayName:   participant.DisplayName,
			Total:         pool.Round1(totals[participant.ID]),
		})
	}

	// Name as a secondary key only makes the ordering deterministic; it
	// does not break ties, equal totals still share a rank below.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	rank := 0
	var prev float64
	for i := range entries {
		if i == 0 || entries[i].Total != prev {
			rank++
			prev = entries[i].Total
		}
		entries[i].Rank = rank
	}
	return entries
}

// Winners returns the shared top of the board; everyone on rank 1 is a
// co-winner. Only meaningful once the pool is finished.
func Winners(entries []LeaderboardEntry) []LeaderboardEntry {
	var winners []LeaderboardEntry
	for _, e := range entries {
		if e.Rank != 1 {
			break
		}
		winners = append(winners, e)
	}
	return winners
}
