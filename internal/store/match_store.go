package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
)

type MatchStore struct {
	db *sqlx.DB
}

const (
	createMatchQuery = `INSERT INTO matches (
            id, pool_id, side_a, side_b, multiplier, result, match_order,
            odds_a, odds_b, odds_source, odds_fetched_at,
            fighter_a_image, fighter_a_record, fighter_a_nationality, fighter_a_flag,
            fighter_b_image, fighter_b_record, fighter_b_nationality, fighter_b_flag,
            created_at)
        VALUES (
            :id, :pool_id, :side_a, :side_b, :multiplier, :result, :match_order,
            :odds_a, :odds_b, :odds_source, :odds_fetched_at,
            :fighter_a_image, :fighter_a_record, :fighter_a_nationality, :fighter_a_flag,
            :fighter_b_image, :fighter_b_record, :fighter_b_nationality, :fighter_b_flag,
            :created_at)`
	updateMatchQuery = `UPDATE matches SET
            side_a = :side_a,
            side_b = :side_b,
            multiplier = :multiplier,
            result = :result,
            odds_a = :odds_a,
            odds_b = :odds_b,
            odds_source = :odds_source,
            odds_fetched_at = :odds_fetched_at,
            fighter_a_image = :fighter_a_image,
            fighter_a_record = :fighter_a_record,
            fighter_a_nationality = :fighter_a_nationality,
            fighter_a_flag = :fighter_a_flag,
            fighter_b_image = :fighter_b_image,
            fighter_b_record = :fighter_b_record,
            fighter_b_nationality = :fighter_b_nationality,
            fighter_b_flag = :fighter_b_flag
        WHERE id = :id`
)

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []pool.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchQuery, matches)
	return err
}

// NextMatchOrder returns the display order for a new match, one past the
// current highest within the pool.
func (s *MatchStore) NextMatchOrder(ctx context.Context, tx *sqlx.Tx, poolID string) (int, error) {
	var next int
	err := tx.GetContext(ctx, &next,
		"SELECT COALESCE(MAX(match_order) + 1, 0) FROM matches WHERE pool_id = ?", poolID)
	return next, err
}

func (s *MatchStore) GetMatch(ctx context.Context, id string) (*pool.Match, error) {
	var m pool.Match
	err := s.db.GetContext(ctx, &m, "SELECT * FROM matches WHERE id = ?", id)
	return &m, err
}

func (s *MatchStore) GetMatches(ctx context.Context, poolID string) ([]pool.Match, error) {
	var matches []pool.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE pool_id = ? ORDER BY match_order ASC", poolID)
	return matches, err
}

// UpdateMatch overwrites all mutable columns. Last write wins: there is no
// version check, concurrent edits simply replace each other.
func (s *MatchStore) UpdateMatch(ctx context.Context, m *pool.Match) error {
	_, err := s.db.NamedExecContext(ctx, updateMatchQuery, m)
	return err
}

func (s *MatchStore) UpdateResult(ctx context.Context, matchID string, result *pool.Result) error {
	_, err := s.db.ExecContext(ctx, "UPDATE matches SET result = ? WHERE id = ?", result, matchID)
	return err
}

// DeleteMatch removes the match and, via FK cascade, every prediction on it.
func (s *MatchStore) DeleteMatch(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", id)
	return err
}
