package advisor

import (
	"testing"

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"I want to invest 100000 yuan", 100000},
		{"about 100k", 100000},
		{"100,000 total", 100000},
		{"10万 to start", 100000},
		{"50万元", 500000},
		{"maybe 1.5万", 15000},
		{"over 10 years", 0}, // small bare number is a duration, not money
		{"no numbers here", 0},
		{"between 5万 and 200000", 200000}, // largest candidate wins
	}
	for _, tc := range cases {
		if got := parseAmount(tc.in); got != tc.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseHorizonGoalExperience(t *testing.T) {
	if got := parseHorizon("thinking long term, 5+ years"); got != models.HorizonLong {
		t.Errorf("horizon = %q", got)
	}
	if got := parseHorizon("short-term parking"); got != models.HorizonShort {
		t.Errorf("horizon = %q", got)
	}
	if got := parseHorizon("持有中期"); got != models.HorizonMedium {
		t.Errorf("horizon = %q", got)
	}

	if got := parseGoal("aggressive growth please"); got != models.GoalAggressive {
		t.Errorf("goal = %q", got)
	}
	if got := parseGoal("I mainly want to grow my savings"); got != models.GoalGrow {
		t.Errorf("goal = %q", got)
	}
	if got := parseGoal("capital preservation matters most"); got != models.GoalPreserve {
		t.Errorf("goal = %q", got)
	}

	if got := parseExperience("I'm an expert trader"); got != models.ExperienceExpert {
		t.Errorf("experience = %q", got)
	}
	if got := parseExperience("experienced with funds"); got != models.ExperienceExperienced {
		t.Errorf("experience = %q", got)
	}
	if got := parseExperience("this is my first time investing"); got != models.ExperienceNovice {
		t.Errorf("experience = %q", got)
	}
}

func TestApplyProfilePrefersSummaryLines(t *testing.T) {
	reply := `Thanks! Here is what I have so far.

Amount: 30万
Horizon: long
Goal: grow
Experience: novice

[PROFILE COMPLETE]`

	var p models.UserProfile
	applyProfile(reply, &p)

	if p.Amount != 300000 {
		t.Errorf("amount = %v, want 300000", p.Amount)
	}
	if p.Horizon != models.HorizonLong || p.Goal != models.GoalGrow || p.Experience != models.ExperienceNovice {
		t.Errorf("profile = %+v", p)
	}
	if !p.Complete() {
		t.Error("profile with amount, horizon, and goal should be complete")
	}
}

func TestApplyProfileKeepsSetFields(t *testing.T) {
	p := models.UserProfile{Amount: 50000, Horizon: models.HorizonShort}
	applyProfile("Amount: 999999\nHorizon: long\nGoal: preserve", &p)

	if p.Amount != 50000 {
		t.Errorf("amount overwritten to %v", p.Amount)
	}
	if p.Horizon != models.HorizonShort {
		t.Errorf("horizon overwritten to %q", p.Horizon)
	}
	if p.Goal != models.GoalPreserve {
		t.Errorf("unset goal should fill, got %q", p.Goal)
	}
}

func TestApplyProfileFreeTextFallback(t *testing.T) {
	var p models.UserProfile
	applyProfile("I have 100k to invest long term, hoping to grow it. Total beginner.", &p)

	if p.Amount != 100000 || p.Horizon != models.HorizonLong ||
		p.Goal != models.GoalGrow || p.Experience != models.ExperienceNovice {
		t.Errorf("profile = %+v", p)
	}
}

func TestStripMarkers(t *testing.T) {
	in := "Here is your summary.\n[PROFILE COMPLETE]\nNext up: risk.\n[RISK ASSESSMENT COMPLETE]"
	got := stripMarkers(in)
	if got != "Here is your summary.\n\nNext up: risk." {
		t.Errorf("stripMarkers = %q", got)
	}
}
