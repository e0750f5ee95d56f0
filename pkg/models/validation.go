package models

// PassThreshold is the minimum validation score for a recommendation to be
// released without regeneration.
const PassThreshold = 60.0

// ValidationResult is the outcome of statically checking a generated
// recommendation. Immutable once produced.
type ValidationResult struct {
	Passed bool     `json:"passed"`
	Score  float64  `json:"score"` // 0-100
	Issues []string `json:"issues,omitempty"`
}
