// Package advisor implements the conversational advisory pipeline: a staged
// intake/risk/recommendation state machine driving an LLM, a screening
// engine, and the fund data resolver, with a bounded generate-validate loop
// guarding everything the model produces.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/internal/fundata"
	"github.com/jefftan83/ai-find-fund/internal/llm"
	"github.com/jefftan83/ai-find-fund/internal/news"
	"github.com/jefftan83/ai-find-fund/internal/screener"
	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// notConfiguredReply is the fixed sentinel every turn gets when no generator
// is configured. The leading tag lets the CLI render it distinctly.
const notConfiguredReply = "[system] assistant model is not configured. Set the Anthropic API key in your configuration and try again."

// systemErrorPrefix marks replies caused by generator failures.
const systemErrorPrefix = "[system error] "

const defaultMaxAttempts = 3

// Config wires an Advisor's collaborators. Everything is injected; the
// advisor owns no globals.
type Config struct {
	Provider    llm.Provider // nil means not configured
	Resolver    *fundata.Resolver
	Screener    *screener.Engine
	News          *news.Fetcher // optional follow-up grounding
	MaxAttempts   int           // generate-validate attempts per cycle
	HistoryWindow int           // history messages sent per chat turn
	NewsItems     int
	Logger        zerolog.Logger
}

// Advisor is the conversation orchestrator. One instance serves one
// conversation; Process is serialized by an internal mutex, so turns never
// interleave on shared state.
type Advisor struct {
	mu sync.Mutex

	provider      llm.Provider
	resolver      *fundata.Resolver
	screen        *screener.Engine
	news          *news.Fetcher
	maxAttempts   int
	historyWindow int
	newsItems     int
	log           zerolog.Logger

	stage      Stage
	profile    models.UserProfile
	tier       models.RiskTier
	shortlist  []models.Fund
	lastText   string
	lastResult models.ValidationResult
	history    []llm.Message
}

// New creates an Advisor in the intake stage.
func New(cfg Config) *Advisor {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	items := cfg.NewsItems
	if items <= 0 {
		items = 5
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = 30
	}
	return &Advisor{
		provider:      cfg.Provider,
		resolver:      cfg.Resolver,
		screen:        cfg.Screener,
		news:          cfg.News,
		maxAttempts:   attempts,
		historyWindow: window,
		newsItems:     items,
		log:           cfg.Logger.With().Str("component", "advisor").Logger(),
	}
}

// Greeting is the opening line for a new or restarted conversation.
func (a *Advisor) Greeting() string { return greeting }

// Stage returns the current conversation stage.
func (a *Advisor) Stage() Stage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stage
}

// Profile returns a copy of the accumulated user profile.
func (a *Advisor) Profile() models.UserProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// Tier returns the assigned risk tier, TierUnknown before assessment.
func (a *Advisor) Tier() models.RiskTier {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tier
}

// LastValidation returns the most recent recommendation's validation result.
func (a *Advisor) LastValidation() models.ValidationResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastResult
}

// Reset returns the conversation to its initial state. Idempotent, legal
// from any stage.
func (a *Advisor) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

func (a *Advisor) resetLocked() {
	a.stage = StageIntake
	a.profile = models.UserProfile{}
	a.tier = models.TierUnknown
	a.shortlist = nil
	a.lastText = ""
	a.lastResult = models.ValidationResult{}
	a.history = nil
}

// Process handles one user turn and returns the reply. It is the only entry
// point; the mutex guarantees a turn completes, including any regeneration
// cycle, before the next one starts.
func (a *Advisor) Process(ctx context.Context, utterance string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return "I didn't catch that — could you say it again?"
	}
	if isRestart(utterance) {
		if to, ok := next(a.stage, EventRestart); ok {
			a.resetLocked()
			a.stage = to
		}
		return greeting
	}
	if a.provider == nil {
		return notConfiguredReply
	}

	switch a.stage {
	case StageIntake:
		return a.handleIntake(ctx, utterance)
	case StageRisk:
		return a.handleRisk(ctx, utterance)
	case StageRecommend:
		return a.handleFollowup(ctx, utterance)
	default:
		return completeHint
	}
}

// chat sends the running history plus one new user turn under a stage system
// prompt. State is not mutated here; callers commit history only after a
// successful turn.
func (a *Advisor) chat(ctx context.Context, system, userText string) (string, error) {
	// Only the most recent turns go out: long consultations must not grow
	// the prompt without bound.
	recent := a.history
	if len(recent) > a.historyWindow {
		recent = recent[len(recent)-a.historyWindow:]
	}
	msgs := make([]llm.Message, 0, len(recent)+1)
	msgs = append(msgs, recent...)
	msgs = append(msgs, llm.UserMessage(userText))
	resp, err := a.provider.Chat(ctx, msgs, &llm.ChatOptions{System: system})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func systemErrorReply(err error) string {
	return systemErrorPrefix + "the assistant is temporarily unavailable (" + err.Error() + "). Please try again."
}

// handleIntake accumulates the user profile. The stage completes when the
// model emits the profile marker with a parseable summary; a generator
// failure leaves the conversation state untouched.
func (a *Advisor) handleIntake(ctx context.Context, utterance string) string {
	reply, err := a.chat(ctx, intakeSystemPrompt, utterance)
	if err != nil {
		a.log.Warn().Err(err).Msg("intake generation failed")
		return systemErrorReply(err)
	}
	a.history = append(a.history, llm.UserMessage(utterance), llm.AssistantMessage(reply))

	if !strings.Contains(reply, markerProfileDone) {
		return stripMarkers(reply)
	}

	// Extract fully or not at all: the summary lines first, then the user's
	// own turns as a fallback for anything the summary missed.
	p := a.profile
	applyProfile(reply, &p)
	for _, m := range a.history {
		if m.Role == llm.RoleUser {
			applyProfile(m.Content, &p)
		}
	}
	if !p.Complete() {
		a.log.Debug().Msg("profile marker seen but profile incomplete, staying in intake")
		return stripMarkers(reply)
	}
	a.profile = p
	a.stage, _ = next(a.stage, EventStageDone)
	a.log.Info().Float64("amount", p.Amount).Str("horizon", string(p.Horizon)).Msg("profile complete")

	// The user must not be left without a prompt: greet the risk stage in
	// the same turn.
	riskReply, err := a.chat(ctx, riskSystemPrompt, riskEntryPrompt(p))
	if err != nil {
		a.log.Warn().Err(err).Msg("risk greeting failed")
		return stripMarkers(reply) + "\n\n" + systemErrorReply(err)
	}
	a.history = append(a.history, llm.UserMessage(riskEntryPrompt(p)), llm.AssistantMessage(riskReply))
	return stripMarkers(reply) + "\n\n" + stripMarkers(riskReply)
}

// handleRisk assigns the tier. On completion it synchronously runs the first
// recommendation cycle so the tier verdict and the recommendation arrive in
// one reply.
func (a *Advisor) handleRisk(ctx context.Context, utterance string) string {
	reply, err := a.chat(ctx, riskSystemPrompt, utterance)
	if err != nil {
		a.log.Warn().Err(err).Msg("risk generation failed")
		return systemErrorReply(err)
	}
	a.history = append(a.history, llm.UserMessage(utterance), llm.AssistantMessage(reply))

	if !strings.Contains(reply, markerRiskDone) {
		return stripMarkers(reply)
	}

	tier := models.ParseTier(reply)
	if tier == models.TierUnknown {
		tier = models.TierBalanced
	}
	a.tier = tier
	a.stage, _ = next(a.stage, EventStageDone)
	a.log.Info().Str("tier", tier.String()).Msg("risk tier assigned")

	return stripMarkers(reply) + "\n\n" + a.runRecommendation(ctx)
}

// runRecommendation screens the universe, launches the background prefetch,
// and runs the bounded generate-validate cycle.
func (a *Advisor) runRecommendation(ctx context.Context) string {
	universe, err := a.resolver.Universe(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("universe load failed")
		return systemErrorPrefix + "fund data is temporarily unavailable. Please try again later."
	}

	shortlist := a.screen.Screen(a.tier, universe)
	if len(shortlist) == 0 {
		return fmt.Sprintf("No funds currently pass the safety screens for the %s tier, so I won't recommend anything today. You can try again later or say \"restart\" to revisit your profile.", a.tier)
	}
	a.shortlist = shortlist

	codes := make([]string, len(shortlist))
	for i, f := range shortlist {
		codes[i] = f.Code
	}
	a.resolver.PrefetchShortlist(codes)

	text, result, err := a.generateAndValidate(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("recommendation generation failed")
		return systemErrorReply(err)
	}
	a.lastText = text
	a.lastResult = result

	if !result.Passed {
		return fmt.Sprintf("%s\n\n[validation score %.0f/100 — unresolved issues: %s]",
			text, result.Score, strings.Join(result.Issues, "; "))
	}
	return text
}

// generateAndValidate runs up to maxAttempts generations, feeding each
// failed attempt's issues verbatim into the next prompt. The final attempt's
// result is accepted pass or fail.
func (a *Advisor) generateAndValidate(ctx context.Context) (string, models.ValidationResult, error) {
	base := recommendPrompt(a.profile, a.tier, a.shortlist)
	prompt := base

	var text string
	var result models.ValidationResult
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		resp, err := a.provider.Chat(ctx,
			[]llm.Message{llm.UserMessage(prompt)},
			&llm.ChatOptions{System: recommendSystemPrompt})
		if err != nil {
			return "", models.ValidationResult{}, err
		}
		text = resp.Content
		result = Validate(text, a.tier)
		a.log.Debug().Int("attempt", attempt).Float64("score", result.Score).Bool("passed", result.Passed).Msg("recommendation validated")
		if result.Passed || attempt == a.maxAttempts {
			break
		}
		prompt = regeneratePrompt(base, result.Issues)
	}
	return text, result, nil
}

// handleFollowup answers questions grounded in the delivered recommendation
// until the user signals closure.
func (a *Advisor) handleFollowup(ctx context.Context, utterance string) string {
	if isClosure(utterance) {
		a.stage, _ = next(a.stage, EventClosure)
		a.history = append(a.history, llm.UserMessage(utterance), llm.AssistantMessage(farewell))
		return farewell
	}

	var headlines []news.Article
	if a.news != nil {
		nctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if h, err := a.news.MarketNews(nctx, a.newsItems); err == nil {
			headlines = h
		}
		cancel()
	}

	system := followupSystemPrompt + "\n\n" + followupContext(a.profile, a.tier, a.shortlist, headlines)
	reply, err := a.chat(ctx, system, utterance)
	if err != nil {
		a.log.Warn().Err(err).Msg("follow-up generation failed")
		return systemErrorReply(err)
	}
	a.history = append(a.history, llm.UserMessage(utterance), llm.AssistantMessage(reply))
	return reply
}

func isRestart(utterance string) bool {
	lower := strings.ToLower(utterance)
	return strings.Contains(lower, "restart") ||
		strings.Contains(lower, "start over") ||
		strings.Contains(lower, "重新开始")
}

func isClosure(utterance string) bool {
	lower := strings.TrimSpace(strings.ToLower(utterance))
	if lower == "done" || lower == "no" || lower == "再见" {
		return true
	}
	for _, phrase := range []string{"that's all", "that is all", "no more questions", "goodbye", "没有了"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	// "bye" only counts as its own word; substrings like "maybe" must not
	// end the conversation.
	for _, w := range strings.Fields(lower) {
		if strings.Trim(w, ".,!?") == "bye" {
			return true
		}
	}
	return false
}
