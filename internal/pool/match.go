package pool

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Result string

const (
	ResultA    Result = "a"
	ResultB    Result = "b"
	ResultDraw Result = "draw"
)

func (r Result) Valid() bool {
	return r == ResultA || r == ResultB || r == ResultDraw
}

type Pick string

const (
	PickA Pick = "a"
	PickB Pick = "b"
)

// Draw is not pickable in v1; adding it later is a new constant here.
func (p Pick) Valid() bool {
	return p == PickA || p == PickB
}

// Matches returns whether this pick wins against the given result.
func (p Pick) Matches(r Result) bool {
	return string(p) == string(r)
}

// FighterInfo is optional display metadata attached to one side of a match.
// It comes from an enrichment collaborator or manual entry and never affects
// scoring or state transitions.
type FighterInfo struct {
	Image       *string `json:"image,omitempty"`
	Record      *string `json:"record,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	Flag        *string `json:"flag,omitempty"`
}

type Match struct {
	ID     uuid.UUID `db:"id" json:"id"`
	PoolID string    `db:"pool_id" json:"pool_id"`

	SideA string `db:"side_a" json:"side_a"`
	SideB string `db:"side_b" json:"side_b"`

	Multiplier int     `db:"multiplier" json:"multiplier"`
	Result     *Result `db:"result" json:"result"`

	// Position within the pool for stable rendering
	MatchOrder int `db:"match_order" json:"match_order"`

	OddsA         *float64   `db:"odds_a" json:"odds_a"`
	OddsB         *float64   `db:"odds_b" json:"odds_b"`
	OddsSource    *string    `db:"odds_source" json:"odds_source,omitempty"`
	OddsFetchedAt *time.Time `db:"odds_fetched_at" json:"odds_fetched_at,omitempty"`

	FighterAImage       *string `db:"fighter_a_image" json:"fighter_a_image,omitempty"`
	FighterARecord      *string `db:"fighter_a_record" json:"fighter_a_record,omitempty"`
	FighterANationality *string `db:"fighter_a_nationality" json:"fighter_a_nationality,omitempty"`
	FighterAFlag        *string `db:"fighter_a_flag" json:"fighter_a_flag,omitempty"`

	FighterBImage       *string `db:"fighter_b_image" json:"fighter_b_image,omitempty"`
	FighterBRecord      *string `db:"fighter_b_record" json:"fighter_b_record,omitempty"`
	FighterBNationality *string `db:"fighter_b_nationality" json:"fighter_b_nationality,omitempty"`
	FighterBFlag        *string `db:"fighter_b_flag" json:"fighter_b_flag,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EffectiveOdds returns the decimal odds for a side, falling back to 1.0
// (flat scoring) when no odds were entered or fetched.
func (m *Match) EffectiveOdds(p Pick) float64 {
	var odds *float64
	if p == PickA {
		odds = m.OddsA
	} else {
		odds = m.OddsB
	}
	if odds == nil || *odds <= 0 {
		return 1.0
	}
	return *odds
}

// PotentialScore is what a correct pick of the given side would earn.
func (m *Match) PotentialScore(p Pick) float64 {
	return Round1(m.EffectiveOdds(p) * float64(m.Multiplier))
}

// Score returns the points the given pick earns against the recorded
// result: odds x multiplier on a correct pick, zero on an incorrect pick,
// a draw, or no result yet.
func (m *Match) Score(p Pick) float64 {
	if m.Result == nil || *m.Result == ResultDraw || !p.Matches(*m.Result) {
		return 0
	}
	return m.EffectiveOdds(p) * float64(m.Multiplier)
}

// Round1 rounds to one decimal place, the precision scores are stored and
// compared at.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
