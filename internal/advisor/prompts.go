package advisor

import (
	"fmt"
	"strings"

	"github.com/jefftan83/ai-find-fund/internal/news"
	"github.com/jefftan83/ai-find-fund/pkg/models"
	"github.com/jefftan83/ai-find-fund/pkg/utils"
)

// greeting opens every conversation, including after a restart.
const greeting = `Hello! I'm your fund advisory assistant. To recommend suitable funds I first need to understand your situation. Let's start simple: roughly how much are you planning to invest?`

// completeHint is the fixed reply for any non-restart utterance in the
// Complete stage.
const completeHint = `This consultation has ended. Say "restart" whenever you'd like to begin a new one.`

// farewell closes the conversation when the user signals they are done.
const farewell = `Thank you for the conversation. Fund investing carries risk; please read a fund's offering documents before subscribing. Say "restart" any time for a fresh consultation.`

const intakeSystemPrompt = `You are the intake specialist of a fund advisory service. Your only job is to collect four facts through natural conversation:
1. investment amount (in yuan)
2. investment horizon: short, medium, or long
3. goal: preserve, grow, or aggressive-growth
4. experience: novice, experienced, or expert

Ask for at most one or two missing facts per turn, in a friendly tone. Never recommend funds. Once you have all four, reply with a summary in exactly this form and nothing after the marker:

amount: <number>
horizon: <short|medium|long>
goal: <preserve|grow|aggressive-growth>
experience: <novice|experienced|expert>
` + markerProfileDone

const riskSystemPrompt = `You are the risk assessment specialist of a fund advisory service. The user's investment profile is provided. Ask one or two short questions to judge their tolerance for losses (for example how they would react to a 15% drawdown). When you are confident, conclude with a short explanation, then a final line in exactly this form:

risk tier: <conservative|balanced|growth|aggressive>
` + markerRiskDone

const recommendSystemPrompt = `You are a fund recommendation writer. Using ONLY the candidate funds provided, produce a recommendation in exactly this structure:

<analysis>two or three sentences on the user's situation</analysis>
<fund_evaluation>one short paragraph comparing the candidates</fund_evaluation>
<recommendation>
for each recommended fund:
<fund>
<code>fund code</code>
<name>fund name</name>
<allocation>NN%</allocation>
<rationale>why this fund suits the user</rationale>
<risk_warning>specific risks of this fund</risk_warning>
<confidence>high|medium|low</confidence>
</fund>
</recommendation>
<disclaimer>standard investment risk disclaimer</disclaimer>

Rules: allocations must sum to exactly 100%. Every fund needs its own risk warning. Recommend 2 to 4 funds.`

const followupSystemPrompt = `You are a fund advisory assistant answering follow-up questions after delivering a recommendation. Ground your answers in the context provided. Be concrete and concise; remind the user of risks where relevant. Do not invent funds that are not in the shortlist.`

// profileSummary renders the collected profile for prompts.
func profileSummary(p models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "investment amount: %s\n", utils.FormatYuan(p.Amount))
	fmt.Fprintf(&b, "horizon: %s\n", p.Horizon)
	fmt.Fprintf(&b, "goal: %s\n", p.Goal)
	fmt.Fprintf(&b, "experience: %s", p.Experience)
	return b.String()
}

// shortlistTable renders screened candidates for prompts.
func shortlistTable(funds []models.Fund) string {
	var b strings.Builder
	b.WriteString("code | name | category | 1y return | max drawdown | volatility | rating | size\n")
	for _, f := range funds {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %.2f%% | %.2f%% | %d | %s\n",
			f.Code, f.Name, f.Category, utils.FormatPct(f.Return1Y), f.MaxDrawdown,
			f.Volatility, f.BestRating(), utils.FormatYuanCompact(f.SizeYuan))
	}
	return strings.TrimRight(b.String(), "\n")
}

// riskEntryPrompt primes the risk stage right after intake completes.
func riskEntryPrompt(p models.UserProfile) string {
	return "The intake stage finished with this profile:\n" + profileSummary(p) +
		"\nGreet the user briefly and begin the risk assessment."
}

// recommendPrompt is the first generation attempt's request.
func recommendPrompt(p models.UserProfile, tier models.RiskTier, shortlist []models.Fund) string {
	var b strings.Builder
	b.WriteString("User profile:\n")
	b.WriteString(profileSummary(p))
	fmt.Fprintf(&b, "\nAssigned risk tier: %s\n", tier)
	fmt.Fprintf(&b, "Suggested categories for this tier: %s\n\n", strings.Join(tier.Config().AllowedCategories, ", "))
	b.WriteString("Candidate funds (screened for this tier):\n")
	b.WriteString(shortlistTable(shortlist))
	b.WriteString("\n\nWrite the recommendation now.")
	return b.String()
}

// regeneratePrompt embeds the previous attempt's validator feedback verbatim
// along with the original context.
func regeneratePrompt(base string, issues []string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nYour previous attempt failed validation with these issues:\n")
	for _, issue := range issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	b.WriteString("Fix every issue and produce the full recommendation again in the required structure.")
	return b.String()
}

// followupContext assembles the grounding block for the follow-up stage.
func followupContext(p models.UserProfile, tier models.RiskTier, shortlist []models.Fund, headlines []news.Article) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(profileSummary(p))
	fmt.Fprintf(&b, "\nrisk tier: %s\n", tier)
	if len(shortlist) > 0 {
		b.WriteString("shortlist:\n")
		b.WriteString(shortlistTable(shortlist))
		b.WriteString("\n")
	}
	if len(headlines) > 0 {
		b.WriteString("recent market headlines:\n")
		for _, h := range headlines {
			fmt.Fprintf(&b, "- %s (%s)\n", h.Title, h.Source)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
