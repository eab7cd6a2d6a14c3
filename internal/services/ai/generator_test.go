package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"go.uber.org/zap"
)

func TestGenerateAnalysisPromptContents(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"generate": "A grounded progress read.",
	}}
	generator := NewGuidanceGenerator(provider, zap.NewNop())

	generated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	input := GenerationInput{
		Profile: &models.Profile{
			PrimaryGoal: "Run a marathon",
			FocusAreas:  []string{"Exercise", "Sleep"},
		},
		Snapshot: &models.ActivitySnapshot{
			PeriodDays:           7,
			TotalActiveMinutes:   150,
			DaysLogged:           5,
			StreakDays:           3,
			ActivityDistribution: map[string]int{"Fitness": 120, "Learning": 30},
			RecentOutcomes: []models.OutcomeSummary{
				{Type: "weight", Value: "82.5", Date: generated},
			},
		},
		Insights: []*models.InsightSummary{
			{KeyInsight: "Training volume doubled.", GeneratedAt: generated},
		},
		Query: "Am I on track?",
	}

	draft, err := generator.GenerateAnalysis(context.Background(), input)
	if err != nil {
		t.Fatalf("GenerateAnalysis() error = %v", err)
	}
	if draft != "A grounded progress read." {
		t.Errorf("draft = %q", draft)
	}

	if len(provider.calls) != 1 {
		t.Fatalf("got %d provider calls, want 1", len(provider.calls))
	}
	call := provider.calls[0]
	prompt := call.Messages[len(call.Messages)-1].Content

	for _, want := range []string{
		"Run a marathon",
		"Exercise, Sleep",
		"Total active minutes: 150",
		"Current streak: 3 days",
		"Fitness: 120",
		"weight: 82.5 (2026-02-01)",
		"2026-02-01: Training volume doubled.",
		"Am I on track?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if call.System == "" || !strings.Contains(call.System, "AUTO_LOG") {
		t.Error("system prompt does not describe the directive grammar")
	}
	if call.MaxTokens == 0 {
		t.Error("MaxTokens not bounded")
	}
}

func TestGenerateOnboardingAckPromptContents(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"generate_onboarding": "Welcome aboard!",
	}}
	generator := NewGuidanceGenerator(provider, zap.NewNop())

	input := GenerationInput{
		Snapshot: &models.ActivitySnapshot{
			PeriodDays:         7,
			TotalActiveMinutes: 30,
			DaysLogged:         1,
			Onboarding: models.OnboardingStatus{
				MinutesProgress: 25,
				DaysProgress:    100.0 / 7,
			},
		},
	}

	if _, err := generator.GenerateOnboardingAck(context.Background(), input, "not enough minutes yet"); err != nil {
		t.Fatalf("GenerateOnboardingAck() error = %v", err)
	}

	prompt := provider.calls[0].Messages[0].Content
	if !strings.Contains(prompt, "not enough minutes yet") {
		t.Error("prompt missing the gate reason")
	}
	if !strings.Contains(prompt, "25% of the minutes target") {
		t.Errorf("prompt missing onboarding progress: %q", prompt)
	}
}

func TestGenerateEmptyDraftIsMalformed(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"generate": "   \n",
	}}
	generator := NewGuidanceGenerator(provider, zap.NewNop())

	_, err := generator.GenerateAnalysis(context.Background(), GenerationInput{})
	if !errors.Is(err, ErrMalformedCompletion) {
		t.Errorf("GenerateAnalysis() error = %v, want ErrMalformedCompletion", err)
	}
}

func TestGenerateKeyInsight(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"rollup_insight": "  Logged 150 minutes across 5 days, mostly fitness.  ",
	}}
	generator := NewGuidanceGenerator(provider, zap.NewNop())

	insight, err := generator.GenerateKeyInsight(context.Background(), nil, &models.ActivitySnapshot{
		PeriodDays:         7,
		TotalActiveMinutes: 150,
		DaysLogged:         5,
	})
	if err != nil {
		t.Fatalf("GenerateKeyInsight() error = %v", err)
	}
	if insight != "Logged 150 minutes across 5 days, mostly fitness." {
		t.Errorf("insight = %q, want trimmed text", insight)
	}
}

func TestHistoryMessagesTruncates(t *testing.T) {
	t.Parallel()

	history := make([]ChatMessage, MaxChatHistory+4)
	for i := range history {
		history[i] = ChatMessage{Role: "user", Content: strings.Repeat("x", i+1)}
	}

	out := historyMessages(history)
	if len(out) != MaxChatHistory {
		t.Fatalf("got %d messages, want %d", len(out), MaxChatHistory)
	}
	// Keeps the most recent messages.
	if out[len(out)-1].Content != history[len(history)-1].Content {
		t.Error("truncation dropped the newest message")
	}
}
