package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/enrich"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/store"
	"github.com/pmarks/fightpool/internal/utils"
)

var ErrInvalidOdds = errors.New("odds must be greater than 1.0")

type MatchService struct {
	db       *sqlx.DB
	pools    *store.PoolStore
	matches  *store.MatchStore
	fighters enrich.FighterLookup
	odds     enrich.OddsLookup
}

func NewMatchService(db *sqlx.DB, pools *store.PoolStore, matches *store.MatchStore, fighters enrich.FighterLookup, odds enrich.OddsLookup) *MatchService {
	return &MatchService{db: db, pools: pools, matches: matches, fighters: fighters, odds: odds}
}

// AddMatch appends a match to the pool. Allowed in any state except
// finished; matches added while locked are fine, they just cannot be
// predicted on until a reopen.
func (s *MatchService) AddMatch(ctx context.Context, poolID, sideA, sideB string, multiplier int) (*pool.Match, error) {
	if _, err := s.editablePool(ctx, poolID); err != nil {
		return nil, err
	}

	m := &pool.Match{
		ID:         uuid.New(),
		PoolID:     poolID,
		SideA:      sideA,
		SideB:      sideB,
		Multiplier: clampMultiplier(multiplier),
		CreatedAt:  time.Now().UTC(),
	}

	s.enrichFighters(ctx, m, false, false)
	s.enrichOdds(ctx, m)

	if err := s.insertMatches(ctx, poolID, []pool.Match{*m}); err != nil {
		return nil, err
	}
	return s.matches.GetMatch(ctx, m.ID.String())
}

type EditMatchInput struct {
	SideA      *string
	SideB      *string
	Multiplier *int
}

// EditMatch partially updates names and multiplier. Renaming a side does
// not touch existing predictions: a pick references the side label, not a
// snapshot of the name.
func (s *MatchService) EditMatch(ctx context.Context, poolID, matchID string, input EditMatchInput) (*pool.Match, error) {
	m, err := s.poolMatch(ctx, poolID, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editablePool(ctx, poolID); err != nil {
		return nil, err
	}

	namesChanged := false
	if input.SideA != nil && *input.SideA != "" && *input.SideA != m.SideA {
		m.SideA = *input.SideA
		namesChanged = true
	}
	if input.SideB != nil && *input.SideB != "" && *input.SideB != m.SideB {
		m.SideB = *input.SideB
		namesChanged = true
	}
	if input.Multiplier != nil {
		m.Multiplier = clampMultiplier(*input.Multiplier)
	}

	if namesChanged {
		s.enrichFighters(ctx, m, false, false)
		s.enrichOdds(ctx, m)
	}

	if err := s.matches.UpdateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	return m, nil
}

// DeleteMatch removes the match and every prediction made on it.
func (s *MatchService) DeleteMatch(ctx context.Context, poolID, matchID string) error {
	if _, err := s.poolMatch(ctx, poolID, matchID); err != nil {
		return err
	}
	if _, err := s.editablePool(ctx, poolID); err != nil {
		return err
	}
	return s.matches.DeleteMatch(ctx, matchID)
}

// SetResult records the outcome of a match. Results may only be entered
// once the pool is locked, so they cannot leak while predictions are still
// coming in. A recorded result can be corrected later, even on a finished
// pool.
func (s *MatchService) SetResult(ctx context.Context, poolID, matchID string, result pool.Result) (*pool.Match, error) {
	if !result.Valid() {
		return nil, fmt.Errorf("invalid result %q", result)
	}

	m, err := s.poolMatch(ctx, poolID, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.resultsAllowed(ctx, poolID); err != nil {
		return nil, err
	}

	if err := s.matches.UpdateResult(ctx, matchID, &result); err != nil {
		return nil, fmt.Errorf("failed to set result: %w", err)
	}
	m.Result = &result
	return m, nil
}

// ClearResult resets a match to undecided; the match then scores for
// nobody until a new result is entered.
func (s *MatchService) ClearResult(ctx context.Context, poolID, matchID string) error {
	if _, err := s.poolMatch(ctx, poolID, matchID); err != nil {
		return err
	}
	if err := s.resultsAllowed(ctx, poolID); err != nil {
		return err
	}
	return s.matches.UpdateResult(ctx, matchID, nil)
}

// UpdateOdds sets odds manually. Manual odds are never overwritten by a
// later enrichment fetch. Passing neither side clears the odds entirely.
func (s *MatchService) UpdateOdds(ctx context.Context, poolID, matchID string, oddsA, oddsB *float64) (*pool.Match, error) {
	m, err := s.poolMatch(ctx, poolID, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editablePool(ctx, poolID); err != nil {
		return nil, err
	}

	for _, o := range []*float64{oddsA, oddsB} {
		if o != nil && *o <= 1.0 {
			return nil, ErrInvalidOdds
		}
	}

	m.OddsA = oddsA
	m.OddsB = oddsB
	if oddsA != nil || oddsB != nil {
		m.OddsSource = utils.Ptr("Manual")
		m.OddsFetchedAt = utils.Ptr(time.Now().UTC())
	} else {
		m.OddsSource = nil
		m.OddsFetchedAt = nil
	}

	if err := s.matches.UpdateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update odds: %w", err)
	}
	return m, nil
}

func (s *MatchService) GetMatches(ctx context.Context, poolID string) ([]pool.Match, error) {
	return s.matches.GetMatches(ctx, poolID)
}

// MatchRow is one parsed row of a bulk import. Tokenizing the source file
// is the caller's problem; rows arrive already split into fields.
type MatchRow struct {
	SideA      string           `json:"side_a"`
	SideB      string           `json:"side_b"`
	Multiplier int              `json:"multiplier"`
	OddsA      *float64         `json:"odds_a"`
	OddsB      *float64         `json:"odds_b"`
	FighterA   pool.FighterInfo `json:"fighter_a"`
	FighterB   pool.FighterInfo `json:"fighter_b"`
}

// ImportMatches appends one match per row through the same rules as
// AddMatch. Rows with a missing side are skipped; out-of-range odds values
// are dropped rather than failing the whole import.
func (s *MatchService) ImportMatches(ctx context.Context, poolID string, rows []MatchRow) ([]pool.Match, error) {
	if _, err := s.editablePool(ctx, poolID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var matches []pool.Match
	for _, row := range rows {
		if row.SideA == "" || row.SideB == "" {
			continue
		}

		m := pool.Match{
			ID:         uuid.New(),
			PoolID:     poolID,
			SideA:      row.SideA,
			SideB:      row.SideB,
			Multiplier: clampMultiplier(row.Multiplier),
			OddsA:      validOdds(row.OddsA),
			OddsB:      validOdds(row.OddsB),
			CreatedAt:  now,
		}
		if m.OddsA != nil || m.OddsB != nil {
			m.OddsSource = utils.Ptr("CSV")
			m.OddsFetchedAt = utils.Ptr(now)
		}
		applyFighterInfo(&m, row.FighterA, row.FighterB)

		hasA := m.FighterARecord != nil || m.FighterAImage != nil
		hasB := m.FighterBRecord != nil || m.FighterBImage != nil
		s.enrichFighters(ctx, &m, hasA, hasB)
		if m.OddsA == nil && m.OddsB == nil {
			s.enrichOdds(ctx, &m)
		}

		matches = append(matches, m)
	}

	if err := s.insertMatches(ctx, poolID, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// insertMatches assigns display orders and writes the batch in one
// transaction, so concurrent imports cannot interleave orders.
func (s *MatchService) insertMatches(ctx context.Context, poolID string, matches []pool.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	base, err := s.matches.NextMatchOrder(ctx, tx, poolID)
	if err != nil {
		return fmt.Errorf("failed to compute match order: %w", err)
	}
	for i := range matches {
		matches[i].MatchOrder = base + i
	}

	if err := s.matches.CreateMatches(ctx, tx, matches); err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}
	return tx.Commit()
}

func (s *MatchService) editablePool(ctx context.Context, poolID string) (*pool.Pool, error) {
	p, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanEditMatches() {
		return nil, pool.ErrPoolFinished
	}
	return p, nil
}

func (s *MatchService) resultsAllowed(ctx context.Context, poolID string) error {
	p, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if !p.Status.CanSetResults() {
		return pool.ErrPoolNotLocked
	}
	return nil
}

// poolMatch loads a match and checks it belongs to the pool named in the
// URL; a match from another pool is indistinguishable from a missing one.
func (s *MatchService) poolMatch(ctx context.Context, poolID, matchID string) (*pool.Match, error) {
	m, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.PoolID != poolID {
		return nil, pool.ErrNotFound
	}
	return m, nil
}

// enrichFighters attaches display metadata from the fighter collaborator.
// Failures are logged and swallowed; a match works fine without them.
func (s *MatchService) enrichFighters(ctx context.Context, m *pool.Match, skipA, skipB bool) {
	if s.fighters == nil {
		return
	}

	if !skipA {
		data, err := s.fighters.LookupFighter(ctx, m.SideA)
		if err != nil {
			slog.Warn("fighter lookup failed", "name", m.SideA, "error", err)
		} else if !data.Empty() {
			setFighterA(m, data)
		}
	}
	if !skipB {
		data, err := s.fighters.LookupFighter(ctx, m.SideB)
		if err != nil {
			slog.Warn("fighter lookup failed", "name", m.SideB, "error", err)
		} else if !data.Empty() {
			setFighterB(m, data)
		}
	}
}

// enrichOdds fetches odds unless they were entered manually or imported.
func (s *MatchService) enrichOdds(ctx context.Context, m *pool.Match) {
	if s.odds == nil {
		return
	}
	if src := utils.OrZero(m.OddsSource); src == "Manual" || src == "CSV" {
		return
	}

	quote, err := s.odds.LookupOdds(ctx, m.SideA, m.SideB)
	if err != nil {
		slog.Warn("odds lookup failed", "side_a", m.SideA, "side_b", m.SideB, "error", err)
		return
	}
	if quote == nil || quote.OddsA <= 1.0 || quote.OddsB <= 1.0 {
		return
	}

	m.OddsA = utils.Ptr(quote.OddsA)
	m.OddsB = utils.Ptr(quote.OddsB)
	m.OddsSource = utils.StringOrNil(quote.Source)
	m.OddsFetchedAt = utils.Ptr(time.Now().UTC())
}

func setFighterA(m *pool.Match, d enrich.FighterData) {
	m.FighterAImage = utils.StringOrNil(d.ImageURL)
	m.FighterARecord = utils.StringOrNil(d.Record)
	m.FighterANationality = utils.StringOrNil(d.Nationality)
	m.FighterAFlag = utils.StringOrNil(d.Flag)
}

func setFighterB(m *pool.Match, d enrich.FighterData) {
	m.FighterBImage = utils.StringOrNil(d.ImageURL)
	m.FighterBRecord = utils.StringOrNil(d.Record)
	m.FighterBNationality = utils.StringOrNil(d.Nationality)
	m.FighterBFlag = utils.StringOrNil(d.Flag)
}

func applyFighterInfo(m *pool.Match, a, b pool.FighterInfo) {
	m.FighterAImage = a.Image
	m.FighterARecord = a.Record
	m.FighterANationality = a.Nationality
	m.FighterAFlag = a.Flag
	m.FighterBImage = b.Image
	m.FighterBRecord = b.Record
	m.FighterBNationality = b.Nationality
	m.FighterBFlag = b.Flag
}

func clampMultiplier(m int) int {
	if m < 1 {
		return 1
	}
	return m
}

func validOdds(o *float64) *float64 {
	if o == nil || *o <= 1.0 {
		return nil
	}
	return o
}
