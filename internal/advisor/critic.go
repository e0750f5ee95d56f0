package advisor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// The five checks below implement a fixed scoring rule: each one either
// passes or deducts its full weight from a starting score of 100, and the
// recommendation passes at 60 or above. The weights are business constants;
// tests assert exact scores.
const (
	deductStructure   = 20
	deductAllocation  = 25
	deductDisclosure  = 20
	deductConsistency = 25
	deductDisclaimer  = 10
)

// allocationSumTolerance is the absolute slack allowed around a 100% total.
const allocationSumTolerance = 1.0

var (
	sectionTags = []string{"analysis", "fund_evaluation", "recommendation", "disclaimer"}
	fundTags    = []string{"code", "name", "allocation", "rationale", "risk_warning", "confidence"}

	allocationRe = regexp.MustCompile(`<allocation>(\d+(?:\.\d+)?)\s*%</allocation>`)
	fundBlockRe  = regexp.MustCompile(`(?s)<fund>.*?</fund>`)
	warningRe    = regexp.MustCompile(`(?s)<risk_warning>(.*?)</risk_warning>`)
	disclaimerRe = regexp.MustCompile(`(?s)<disclaimer>(.*?)</disclaimer>`)
)

// checkResult is one check's verdict.
type checkResult struct {
	ok        bool
	deduction float64
	issues    []string
}

func pass() checkResult { return checkResult{ok: true} }

func fail(deduction float64, issues ...string) checkResult {
	return checkResult{deduction: deduction, issues: issues}
}

// checkStructure verifies every section tag opens and closes an equal
// number of times and every per-fund field tag appears at least once. A
// section that never appears is tolerated; an unbalanced one is not. The
// dedicated disclaimer check still catches a missing disclaimer.
func checkStructure(text string) checkResult {
	var issues []string
	for _, tag := range sectionTags {
		opens := strings.Count(text, "<"+tag+">")
		closes := strings.Count(text, "</"+tag+">")
		if opens != closes {
			issues = append(issues, fmt.Sprintf("section <%s> opens %d times but closes %d", tag, opens, closes))
		}
	}
	for _, tag := range fundTags {
		if !strings.Contains(text, "<"+tag+">") {
			issues = append(issues, fmt.Sprintf("missing per-fund field <%s>", tag))
		}
	}
	if len(issues) > 0 {
		return fail(deductStructure, issues...)
	}
	return pass()
}

// checkAllocationSum extracts every allocation percentage and requires the
// total to be 100 within tolerance. No allocations at all is a failure.
func checkAllocationSum(text string) checkResult {
	matches := allocationRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return fail(deductAllocation, "no allocation percentages found")
	}

	var sum float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return fail(deductAllocation, fmt.Sprintf("unparseable allocation %q", m[1]))
		}
		sum += v
	}
	if math.Abs(sum-100) > allocationSumTolerance {
		return fail(deductAllocation, fmt.Sprintf("allocations sum to %.1f%%, want 100%% ±%.0f", sum, allocationSumTolerance))
	}
	return pass()
}

// checkRiskDisclosure requires at least one substantive risk warning and one
// inside every per-fund block.
func checkRiskDisclosure(text string) checkResult {
	var issues []string

	substantive := false
	for _, m := range warningRe.FindAllStringSubmatch(text, -1) {
		if len(strings.TrimSpace(m[1])) >= 5 {
			substantive = true
			break
		}
	}
	if !substantive {
		issues = append(issues, "no substantive risk warning found")
	}

	for i, block := range fundBlockRe.FindAllString(text, -1) {
		if !strings.Contains(block, "<risk_warning>") {
			issues = append(issues, fmt.Sprintf("fund block %d has no risk warning", i+1))
		}
	}

	if len(issues) > 0 {
		return fail(deductDisclosure, issues...)
	}
	return pass()
}

// checkTierConsistency enforces the tier's banned and required content
// keywords, case-insensitively.
func checkTierConsistency(text string, tier models.RiskTier) checkResult {
	cfg := tier.Config()
	lower := strings.ToLower(text)

	var issues []string
	for _, kw := range cfg.BannedKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			issues = append(issues, fmt.Sprintf("%s tier must not recommend %q", tier, kw))
		}
	}
	if len(cfg.RequiredKeywords) > 0 {
		found := false
		for _, kw := range cfg.RequiredKeywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, fmt.Sprintf("%s tier recommendation mentions none of %v", tier, cfg.RequiredKeywords))
		}
	}

	if len(issues) > 0 {
		return fail(deductConsistency, issues...)
	}
	return pass()
}

// checkDisclaimer requires a closing disclaimer with real content.
func checkDisclaimer(text string) checkResult {
	m := disclaimerRe.FindStringSubmatch(text)
	if m == nil {
		return fail(deductDisclaimer, "missing disclaimer section")
	}
	if len(strings.TrimSpace(m[1])) < 10 {
		return fail(deductDisclaimer, "disclaimer too short")
	}
	return pass()
}

// Validate scores a generated recommendation against the five checks.
func Validate(text string, tier models.RiskTier) models.ValidationResult {
	score := 100.0
	var issues []string

	for _, res := range []checkResult{
		checkStructure(text),
		checkAllocationSum(text),
		checkRiskDisclosure(text),
		checkTierConsistency(text, tier),
		checkDisclaimer(text),
	} {
		if !res.ok {
			score -= res.deduction
			issues = append(issues, res.issues...)
		}
	}

	score = math.Max(0, math.Min(100, score))
	return models.ValidationResult{
		Passed: score >= models.PassThreshold,
		Score:  score,
		Issues: issues,
	}
}
