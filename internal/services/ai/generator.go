package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/benvon/activity-coach/internal/models"
	"go.uber.org/zap"
)

const (
	// MaxInsightHistory is how many prior insight summaries feed the prompt
	MaxInsightHistory = 3
	// MaxChatHistory is how many recent chat messages feed the prompt
	MaxChatHistory = 6

	// analysisMaxTokens bounds the full-analysis draft length
	analysisMaxTokens = 600
	// onboardingMaxTokens bounds the shorter onboarding acknowledgment
	onboardingMaxTokens = 300
	// insightMaxTokens bounds the one-line rollup insight
	insightMaxTokens = 120
)

// GenerationInput carries everything the generator may reference. The
// generator must not assert anything absent from these fields.
type GenerationInput struct {
	Profile  *models.Profile
	Snapshot *models.ActivitySnapshot
	Insights []*models.InsightSummary // newest first
	History  []ChatMessage            // oldest first
	Query    string
}

// GuidanceGenerator produces coaching drafts from aggregated data. Drafts
// may embed at most one AUTO_LOG and one UPDATE_PROFILE directive using
// the bracket tag grammar; the extractor strips them before the text
// reaches the user.
type GuidanceGenerator struct {
	provider CompletionProvider
	logger   *zap.Logger
}

// NewGuidanceGenerator creates a new guidance generator
func NewGuidanceGenerator(provider CompletionProvider, logger *zap.Logger) *GuidanceGenerator {
	return &GuidanceGenerator{
		provider: provider,
		logger:   logger,
	}
}

// GenerateAnalysis produces the full-analysis draft. Used only when the
// gate permitted reasoning.
func (g *GuidanceGenerator) GenerateAnalysis(ctx context.Context, in GenerationInput) (string, error) {
	prompt := g.buildAnalysisPrompt(in)

	draft, err := g.provider.Complete(ctx, CompletionRequest{
		Operation: "generate",
		System:    analysisSystemPrompt,
		Messages:  append(historyMessages(in.History), ChatMessage{Role: "user", Content: prompt}),
		MaxTokens: analysisMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate analysis: %w", err)
	}

	draft = strings.TrimSpace(draft)
	if draft == "" {
		return "", fmt.Errorf("%w: empty draft", ErrMalformedCompletion)
	}

	return draft, nil
}

// GenerateOnboardingAck produces the reduced acknowledgment used when the
// gate denied full analysis. It narrates partial progress without drawing
// conclusions and may still emit an auto-log directive.
func (g *GuidanceGenerator) GenerateOnboardingAck(ctx context.Context, in GenerationInput, gateReason string) (string, error) {
	prompt := g.buildOnboardingPrompt(in, gateReason)

	draft, err := g.provider.Complete(ctx, CompletionRequest{
		Operation: "generate_onboarding",
		System:    onboardingSystemPrompt,
		Messages:  append(historyMessages(in.History), ChatMessage{Role: "user", Content: prompt}),
		MaxTokens: onboardingMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate onboarding acknowledgment: %w", err)
	}

	draft = strings.TrimSpace(draft)
	if draft == "" {
		return "", fmt.Errorf("%w: empty draft", ErrMalformedCompletion)
	}

	return draft, nil
}

// GenerateKeyInsight produces the one-line insight stored by the weekly
// rollup worker. No directives, no conversation context.
func (g *GuidanceGenerator) GenerateKeyInsight(ctx context.Context, profile *models.Profile, snapshot *models.ActivitySnapshot) (string, error) {
	prompt := fmt.Sprintf(`Summarize this user's week in one factual sentence a coach could reference later.

%s%s
Do not give advice. Do not use bracket tags. One sentence only.`,
		renderProfile(profile), renderSnapshot(snapshot))

	insight, err := g.provider.Complete(ctx, CompletionRequest{
		Operation: "rollup_insight",
		System:    "You write one-line factual summaries of weekly activity data for a coaching app.",
		Messages:  []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens: insightMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate key insight: %w", err)
	}

	insight = strings.TrimSpace(insight)
	if insight == "" {
		return "", fmt.Errorf("%w: empty insight", ErrMalformedCompletion)
	}

	return insight, nil
}

const analysisSystemPrompt = `You are a supportive personal coach. You analyze a user's logged activities and outcomes and give a grounded progress read.

Rules:
- Keep the response under 250 words.
- Tie observations to the user's stated primary goal.
- Reference specific history or trends only when they appear in the data provided.
- Never assert anything not present in the provided data.
- Avoid prescriptive imperative phrasing ("you must", "you should"); prefer observations and invitations.
- If the user's message says they completed an activity that is not yet logged, append exactly one tag at the end: [AUTO_LOG: <activity name>, <integer minutes>, <short description>]
- If the user's message states a new goal or changed focus, append exactly one tag: [UPDATE_PROFILE: <new primary goal or empty>, <comma separated focus areas or empty>]
- At most one tag of each kind. Tags go at the very end of the response.`

const onboardingSystemPrompt = `You are a supportive personal coach welcoming a user who has only just started logging. There is not enough data for real analysis yet.

Rules:
- Be warm and brief.
- Mention at least one concrete recent activity when one appears in the data.
- State how far the user is from the data level needed for a full analysis, using the numbers provided.
- Do not draw conclusions or identify trends.
- If the user's message says they completed an activity, you may append exactly one tag at the end: [AUTO_LOG: <activity name>, <integer minutes>, <short description>]`

func (g *GuidanceGenerator) buildAnalysisPrompt(in GenerationInput) string {
	var b strings.Builder

	b.WriteString(renderProfile(in.Profile))
	b.WriteString(renderSnapshot(in.Snapshot))
	b.WriteString(renderInsights(in.Insights))

	if in.Query != "" {
		b.WriteString("\nThe user asks: ")
		b.WriteString(in.Query)
		b.WriteString("\n")
	} else {
		b.WriteString("\nThe user has not asked a specific question; give a general progress read.\n")
	}

	return b.String()
}

func (g *GuidanceGenerator) buildOnboardingPrompt(in GenerationInput, gateReason string) string {
	var b strings.Builder

	b.WriteString(renderProfile(in.Profile))
	b.WriteString(renderSnapshot(in.Snapshot))

	fmt.Fprintf(&b, "\nWhy full analysis is not available yet: %s\n", gateReason)
	if in.Snapshot != nil {
		ob := in.Snapshot.Onboarding
		fmt.Fprintf(&b, "Onboarding progress: %.0f%% of the minutes target, %.0f%% of the days target.\n",
			ob.MinutesProgress, ob.DaysProgress)
	}

	if in.Query != "" {
		b.WriteString("\nThe user says: ")
		b.WriteString(in.Query)
		b.WriteString("\n")
	}

	return b.String()
}

func renderProfile(profile *models.Profile) string {
	goal := models.DefaultPrimaryGoal
	var focus []string
	if profile != nil {
		if profile.PrimaryGoal != "" {
			goal = profile.PrimaryGoal
		}
		focus = profile.FocusAreas
	}

	s := fmt.Sprintf("User's primary goal: %s\n", goal)
	if len(focus) > 0 {
		s += fmt.Sprintf("Focus areas: %s\n", strings.Join(focus, ", "))
	}
	return s
}

func renderSnapshot(snapshot *models.ActivitySnapshot) string {
	if snapshot == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nActivity over the last %d days:\n", snapshot.PeriodDays)
	fmt.Fprintf(&b, "- Total active minutes: %d\n", snapshot.TotalActiveMinutes)
	fmt.Fprintf(&b, "- Days with at least one log: %d\n", snapshot.DaysLogged)
	fmt.Fprintf(&b, "- Current streak: %d days\n", snapshot.StreakDays)

	if len(snapshot.ActivityDistribution) > 0 {
		// Stable ordering keeps prompts reproducible for identical snapshots.
		categories := make([]string, 0, len(snapshot.ActivityDistribution))
		for category := range snapshot.ActivityDistribution {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		b.WriteString("- Minutes by category:\n")
		for _, category := range categories {
			fmt.Fprintf(&b, "  - %s: %d\n", category, snapshot.ActivityDistribution[category])
		}
	}

	if len(snapshot.RecentOutcomes) > 0 {
		b.WriteString("- Recent self-reported outcomes:\n")
		for _, o := range snapshot.RecentOutcomes {
			fmt.Fprintf(&b, "  - %s: %s (%s)\n", o.Type, o.Value, o.Date.Format("2006-01-02"))
		}
	}

	return b.String()
}

func renderInsights(insights []*models.InsightSummary) string {
	if len(insights) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nPrevious coaching insights (newest first):\n")
	for _, insight := range insights {
		fmt.Fprintf(&b, "- %s: %s\n", insight.GeneratedAt.Format("2006-01-02"), insight.KeyInsight)
	}
	return b.String()
}

// historyMessages converts stored chat history (oldest first) into
// provider messages preceding the current prompt.
func historyMessages(history []ChatMessage) []ChatMessage {
	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}
	out := make([]ChatMessage, len(history))
	copy(out, history)
	return out
}
