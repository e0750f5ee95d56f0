package advisor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// Completion markers the stage prompts instruct the model to emit. Their
// presence ends a stage; they are stripped before the reply reaches the user.
const (
	markerProfileDone = "[PROFILE COMPLETE]"
	markerRiskDone    = "[RISK ASSESSMENT COMPLETE]"
)

var (
	amountLineRe     = regexp.MustCompile(`(?mi)^\s*amount\s*[:：]\s*([^\n]+)$`)
	horizonLineRe    = regexp.MustCompile(`(?mi)^\s*horizon\s*[:：]\s*([^\n]+)$`)
	goalLineRe       = regexp.MustCompile(`(?mi)^\s*goal\s*[:：]\s*([^\n]+)$`)
	experienceLineRe = regexp.MustCompile(`(?mi)^\s*experience\s*[:：]\s*([^\n]+)$`)

	numberRe = regexp.MustCompile(`(\d+(?:[,，]\d{3})*(?:\.\d+)?)\s*([kKwW万]|万元)?`)
)

// applyProfile extracts profile fields from text into p. Fields already set
// are kept; fields that cannot be parsed stay unset so the stage keeps
// asking. The summary lines the intake prompt mandates are tried first, then
// free-text keywords.
func applyProfile(text string, p *models.UserProfile) {
	if p.Amount <= 0 {
		if m := amountLineRe.FindStringSubmatch(text); m != nil {
			p.Amount = parseAmount(m[1])
		}
		if p.Amount <= 0 {
			p.Amount = parseAmount(text)
		}
	}
	if p.Horizon == "" {
		if m := horizonLineRe.FindStringSubmatch(text); m != nil {
			p.Horizon = parseHorizon(m[1])
		}
		if p.Horizon == "" {
			p.Horizon = parseHorizon(text)
		}
	}
	if p.Goal == "" {
		if m := goalLineRe.FindStringSubmatch(text); m != nil {
			p.Goal = parseGoal(m[1])
		}
		if p.Goal == "" {
			p.Goal = parseGoal(text)
		}
	}
	if p.Experience == "" {
		if m := experienceLineRe.FindStringSubmatch(text); m != nil {
			p.Experience = parseExperience(m[1])
		}
		if p.Experience == "" {
			p.Experience = parseExperience(text)
		}
	}
}

// parseAmount finds the most plausible investment amount in free text.
// "100k", "10万", and "100,000" all come out as yuan. Small bare numbers are
// ignored so "10 years" does not read as an amount.
func parseAmount(text string) float64 {
	var best float64
	for _, m := range numberRe.FindAllStringSubmatch(text, -1) {
		raw := strings.NewReplacer(",", "", "，", "").Replace(m[1])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "k":
			v *= 1_000
		case "w", "万", "万元":
			v *= 10_000
		default:
			if v < 100 {
				continue
			}
		}
		if v > best {
			best = v
		}
	}
	return best
}

func parseHorizon(text string) models.Horizon {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "short") || strings.Contains(lower, "短期"):
		return models.HorizonShort
	case strings.Contains(lower, "medium") || strings.Contains(lower, "mid") || strings.Contains(lower, "中期"):
		return models.HorizonMedium
	case strings.Contains(lower, "long") || strings.Contains(lower, "长期"):
		return models.HorizonLong
	}
	return ""
}

func parseGoal(text string) models.Goal {
	lower := strings.ToLower(text)
	switch {
	// "aggressive growth" must win before the bare "grow" keyword.
	case strings.Contains(lower, "aggressive") || strings.Contains(lower, "激进"):
		return models.GoalAggressive
	case strings.Contains(lower, "preserv") || strings.Contains(lower, "protect") || strings.Contains(lower, "保值"):
		return models.GoalPreserve
	case strings.Contains(lower, "grow") || strings.Contains(lower, "增值"):
		return models.GoalGrow
	}
	return ""
}

func parseExperience(text string) models.Experience {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "expert") || strings.Contains(lower, "专业"):
		return models.ExperienceExpert
	case strings.Contains(lower, "experienced") || strings.Contains(lower, "有经验"):
		return models.ExperienceExperienced
	case strings.Contains(lower, "novice") || strings.Contains(lower, "beginner") ||
		strings.Contains(lower, "first time") || strings.Contains(lower, "new to") ||
		strings.Contains(lower, "新手"):
		return models.ExperienceNovice
	}
	return ""
}

// stripMarkers removes completion markers before a reply is shown.
func stripMarkers(text string) string {
	text = strings.ReplaceAll(text, markerProfileDone, "")
	text = strings.ReplaceAll(text, markerRiskDone, "")
	return strings.TrimSpace(text)
}
