// Package enrich defines the outbound collaborator contracts for optional
// match display data. Lookups are best effort: a failed or empty lookup must
// never block match creation, and nothing returned here affects scoring.
package enrich

import "context"

// FighterData is display metadata for one named side.
type FighterData struct {
	ImageURL    string
	Record      string
	Nationality string
	Flag        string
}

func (d FighterData) Empty() bool {
	return d.ImageURL == "" && d.Record == "" && d.Nationality == ""
}

// OddsQuote holds decimal odds for both sides of a match.
type OddsQuote struct {
	OddsA  float64
	OddsB  float64
	Source string
}

type FighterLookup interface {
	LookupFighter(ctx context.Context, name string) (FighterData, error)
}

// OddsLookup returns nil when no odds are available for the pairing.
type OddsLookup interface {
	LookupOdds(ctx context.Context, sideA, sideB string) (*OddsQuote, error)
}

// Noop satisfies both lookups and never finds anything. Used when no
// enrichment backend is configured.
type Noop struct{}

func (Noop) LookupFighter(ctx context.Context, name string) (FighterData, error) {
	return FighterData{}, nil
}

func (Noop) LookupOdds(ctx context.Context, sideA, sideB string) (*OddsQuote, error) {
	return nil, nil
}
