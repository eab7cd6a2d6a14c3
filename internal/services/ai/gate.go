package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benvon/activity-coach/internal/models"
	"go.uber.org/zap"
)

const (
	// GateMinutesThreshold is the active-minutes level that permits full analysis
	GateMinutesThreshold = 120
	// GateDaysThreshold is the logged-days level that permits full analysis
	GateDaysThreshold = 7
	// GateMinimumMinutes is the floor below which analysis is always denied
	GateMinimumMinutes = 60
	// GateHighMinutes is the active-minutes level for HIGH confidence
	GateHighMinutes = 240
)

// ConfidenceGate decides whether a snapshot holds enough signal to permit
// generative advice. The allow/deny boolean and the tier come from fixed
// thresholds only; the completion service is used solely to phrase the
// human-readable reason, with a deterministic fallback.
type ConfidenceGate struct {
	provider CompletionProvider
	logger   *zap.Logger
}

// NewConfidenceGate creates a new confidence gate. The provider may be nil,
// in which case reasons are always the deterministic fallback text.
func NewConfidenceGate(provider CompletionProvider, logger *zap.Logger) *ConfidenceGate {
	return &ConfidenceGate{
		provider: provider,
		logger:   logger,
	}
}

// DecideFromThresholds computes the gate decision from fixed thresholds.
// Pure function of the snapshot.
func DecideFromThresholds(snapshot *models.ActivitySnapshot) models.GateDecision {
	minutes := snapshot.TotalActiveMinutes
	days := snapshot.DaysLogged

	// No logged days denies outright, regardless of any other signal.
	if days < 1 {
		return models.GateDecision{
			Confidence:     models.ConfidenceLow,
			AllowReasoning: false,
			Reason:         "No activity has been logged yet, so there is nothing to analyze.",
		}
	}

	if minutes < GateMinimumMinutes {
		return models.GateDecision{
			Confidence:     models.ConfidenceLow,
			AllowReasoning: false,
			Reason: fmt.Sprintf(
				"Only %d active minutes logged so far; at least %d minutes or %d logged days are needed for a full analysis.",
				minutes, GateMinutesThreshold, GateDaysThreshold),
		}
	}

	allow := minutes >= GateMinutesThreshold || days >= GateDaysThreshold

	tier := models.ConfidenceMedium
	if minutes >= GateHighMinutes || (days >= GateDaysThreshold && minutes >= GateMinutesThreshold) {
		tier = models.ConfidenceHigh
	}

	if !allow {
		return models.GateDecision{
			Confidence:     tier,
			AllowReasoning: false,
			Reason: fmt.Sprintf(
				"%d active minutes across %d days is a promising start but still below the %d-minute / %d-day level needed for a full analysis.",
				minutes, days, GateMinutesThreshold, GateDaysThreshold),
		}
	}

	return models.GateDecision{
		Confidence:     tier,
		AllowReasoning: true,
		Reason: fmt.Sprintf(
			"%d active minutes across %d logged days is enough signal for a meaningful analysis.",
			minutes, days),
	}
}

// Evaluate computes the gate decision and, when a provider is configured,
// asks it to rephrase the reason in a friendlier voice. A provider failure
// or unparseable payload falls back to the deterministic reason; the
// decision itself is never delegated.
func (g *ConfidenceGate) Evaluate(ctx context.Context, profile *models.Profile, snapshot *models.ActivitySnapshot) models.GateDecision {
	decision := DecideFromThresholds(snapshot)

	if g.provider == nil {
		return decision
	}

	phrased, err := g.phraseReason(ctx, profile, snapshot, decision)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("gate_reason_fallback",
				zap.String("confidence", string(decision.Confidence)),
				zap.Error(err),
			)
		}
		return decision
	}

	decision.Reason = phrased
	return decision
}

func (g *ConfidenceGate) phraseReason(ctx context.Context, profile *models.Profile, snapshot *models.ActivitySnapshot, decision models.GateDecision) (string, error) {
	goal := models.DefaultPrimaryGoal
	if profile != nil && profile.PrimaryGoal != "" {
		goal = profile.PrimaryGoal
	}

	prompt := fmt.Sprintf(`A coaching system decided whether a user's logged data is sufficient for a full behavioral analysis.

Decision (fixed, do not change it): confidence=%s, analysis_permitted=%t
User's primary goal: %s
Data: %d active minutes, %d days logged, %d-day streak, over the last %d days.

Rephrase this one-line justification in a warm, factual voice without changing its meaning:
%q

Respond with a JSON object: {"reason": "<one sentence>"}`,
		decision.Confidence, decision.AllowReasoning, goal,
		snapshot.TotalActiveMinutes, snapshot.DaysLogged, snapshot.StreakDays, snapshot.PeriodDays,
		decision.Reason)

	content, err := g.provider.Complete(ctx, CompletionRequest{
		Operation: "gate",
		System:    "You rephrase short factual justifications for a personal coaching app. Respond with valid JSON only.",
		Messages:  []ChatMessage{{Role: "user", Content: prompt}},
		JSONMode:  true,
		MaxTokens: 150,
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}
	if payload.Reason == "" {
		return "", fmt.Errorf("%w: empty reason", ErrMalformedCompletion)
	}

	return payload.Reason, nil
}
