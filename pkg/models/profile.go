// Package models defines the standard data models shared across the fund
// advisor: user profiles, risk tiers, fund records, and validation results.
package models

import "strings"

// Horizon is the user's intended investment horizon.
type Horizon string

const (
	HorizonShort  Horizon = "short"  // under 1 year
	HorizonMedium Horizon = "medium" // 1-3 years
	HorizonLong   Horizon = "long"   // 3 years or more
)

// Goal is the user's stated investment goal.
type Goal string

const (
	GoalPreserve   Goal = "preserve"
	GoalGrow       Goal = "grow"
	GoalAggressive Goal = "aggressive-growth"
)

// Experience classifies the user's prior fund investment experience.
type Experience string

const (
	ExperienceNovice      Experience = "novice"
	ExperienceExperienced Experience = "experienced"
	ExperienceExpert      Experience = "expert"
)

// UserProfile holds the structured investment profile accumulated during the
// intake stage. Zero values mean the field has not been extracted yet.
type UserProfile struct {
	Amount     float64    `json:"amount"` // investment amount in yuan
	Horizon    Horizon    `json:"horizon,omitempty"`
	Goal       Goal       `json:"goal,omitempty"`
	Experience Experience `json:"experience,omitempty"`
}

// Complete reports whether the core profile fields have been collected.
func (p UserProfile) Complete() bool {
	return p.Amount > 0 && p.Horizon != "" && p.Goal != ""
}

// RiskTier is one of four ordered risk-tolerance classifications.
type RiskTier int

const (
	TierUnknown RiskTier = iota
	TierConservative
	TierBalanced
	TierGrowth
	TierAggressive
)

var tierNames = map[RiskTier]string{
	TierConservative: "conservative",
	TierBalanced:     "balanced",
	TierGrowth:       "growth",
	TierAggressive:   "aggressive",
}

// String returns the canonical lowercase tier name.
func (t RiskTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTier finds a tier name inside free text. Returns TierUnknown when no
// tier name is present. The longest match wins so that "aggressive" is not
// shadowed by a partial match.
func ParseTier(text string) RiskTier {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "conservative"):
		return TierConservative
	case strings.Contains(lower, "aggressive"):
		return TierAggressive
	case strings.Contains(lower, "balanced"):
		return TierBalanced
	case strings.Contains(lower, "growth"):
		return TierGrowth
	}
	return TierUnknown
}

// TierConfig holds the screening thresholds and allocation guidance attached
// to a risk tier. The keyword lists drive the recommendation validator's
// tier-consistency check.
type TierConfig struct {
	MinBondPct        float64  `json:"min_bond_pct"`
	MaxEquityPct      float64  `json:"max_equity_pct"`
	AllowedCategories []string `json:"allowed_categories"`
	MaxDrawdownPct    float64  `json:"max_drawdown_pct"`
	MaxVolatilityPct  float64  `json:"max_volatility_pct"`
	MinRating         int      `json:"min_rating"` // 0 = unrated acceptable
	SizeFloorYuan     float64  `json:"size_floor_yuan"`
	SizeCeilYuan      float64  `json:"size_ceil_yuan"`
	BannedKeywords    []string `json:"banned_keywords,omitempty"`
	RequiredKeywords  []string `json:"required_keywords,omitempty"`
}

// tierConfigs is the fixed per-tier configuration table. The thresholds are a
// business rule, not tunables: the validator's scoring tests depend on the
// keyword lists.
var tierConfigs = map[RiskTier]TierConfig{
	TierConservative: {
		MinBondPct:        70,
		MaxEquityPct:      10,
		AllowedCategories: []string{"bond", "money-market", "fixed-income-plus"},
		MaxDrawdownPct:    5,
		MaxVolatilityPct:  8,
		MinRating:         3,
		SizeFloorYuan:     5e8,
		SizeCeilYuan:      5e10,
		BannedKeywords:    []string{"equity fund", "sector fund", "ChiNext", "STAR Market"},
	},
	TierBalanced: {
		MinBondPct:        30,
		MaxEquityPct:      40,
		AllowedCategories: []string{"bond", "hybrid", "fixed-income-plus", "index"},
		MaxDrawdownPct:    15,
		MaxVolatilityPct:  15,
		MinRating:         3,
		SizeFloorYuan:     2e8,
		SizeCeilYuan:      8e10,
	},
	TierGrowth: {
		MinBondPct:        20,
		MaxEquityPct:      60,
		AllowedCategories: []string{"hybrid", "equity", "index", "bond"},
		MaxDrawdownPct:    25,
		MaxVolatilityPct:  22,
		MinRating:         2,
		SizeFloorYuan:     2e8,
		SizeCeilYuan:      1e11,
	},
	TierAggressive: {
		MinBondPct:        0,
		MaxEquityPct:      80,
		AllowedCategories: []string{"equity", "hybrid", "index", "sector"},
		MaxDrawdownPct:    40,
		MaxVolatilityPct:  35,
		MinRating:         0,
		SizeFloorYuan:     1e8,
		SizeCeilYuan:      2e11,
		RequiredKeywords:  []string{"equity", "hybrid", "index"},
	},
}

// Config returns the configuration record for the tier. Unknown tiers fall
// back to the balanced configuration.
func (t RiskTier) Config() TierConfig {
	if cfg, ok := tierConfigs[t]; ok {
		return cfg
	}
	return tierConfigs[TierBalanced]
}

// SuggestedCategories returns the fund categories typically recommended for
// the tier, most suitable first.
func (t RiskTier) SuggestedCategories() []string {
	cfg := t.Config()
	out := make([]string, len(cfg.AllowedCategories))
	copy(out, cfg.AllowedCategories)
	return out
}
