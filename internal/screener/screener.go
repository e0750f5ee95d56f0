// Package screener filters the fund universe down to a shortlist a risk tier
// can actually hold, and computes the risk statistics the rest of the system
// reads off a NAV series.
package screener

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// DefaultShortlistSize caps the screened shortlist.
const DefaultShortlistSize = 10

// Engine screens candidate funds against tier constraints.
type Engine struct {
	shortlistSize int
	log           zerolog.Logger
}

// New creates an Engine. size <= 0 falls back to DefaultShortlistSize.
func New(size int, log zerolog.Logger) *Engine {
	if size <= 0 {
		size = DefaultShortlistSize
	}
	return &Engine{
		shortlistSize: size,
		log:           log.With().Str("component", "screener").Logger(),
	}
}

// Screen filters the universe for a tier and returns the shortlist sorted by
// trailing 1-year return, best first. An empty result is a valid outcome the
// caller must surface, not an error.
//
// Filters apply in a fixed order: positive 1-year return, drawdown ceiling,
// volatility ceiling, minimum rating, then size band. The aggressive tier
// accepts unrated funds, and an unknown size (0) always passes the band.
func (e *Engine) Screen(tier models.RiskTier, universe []models.Fund) []models.Fund {
	cfg := tier.Config()

	var passed []models.Fund
	for _, f := range universe {
		if f.Return1Y <= 0 {
			continue
		}
		if f.MaxDrawdown > cfg.MaxDrawdownPct {
			continue
		}
		if f.Volatility > cfg.MaxVolatilityPct {
			continue
		}
		if cfg.MinRating > 0 {
			if !f.Rated() && tier != models.TierAggressive {
				continue
			}
			if f.Rated() && f.BestRating() < cfg.MinRating {
				continue
			}
		}
		if f.SizeYuan != 0 && (f.SizeYuan < cfg.SizeFloorYuan || f.SizeYuan > cfg.SizeCeilYuan) {
			continue
		}
		passed = append(passed, f)
	}

	// Descending by return, code ascending as the tiebreak so the shortlist
	// is deterministic for identical inputs.
	sort.SliceStable(passed, func(i, j int) bool {
		if passed[i].Return1Y != passed[j].Return1Y {
			return passed[i].Return1Y > passed[j].Return1Y
		}
		return passed[i].Code < passed[j].Code
	})

	if len(passed) > e.shortlistSize {
		passed = passed[:e.shortlistSize]
	}
	e.log.Debug().
		Str("tier", tier.String()).
		Int("universe", len(universe)).
		Int("shortlist", len(passed)).
		Msg("screening complete")
	return passed
}
