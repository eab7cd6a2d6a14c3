package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/benvon/activity-coach/internal/models"
	"go.uber.org/zap"
)

// ResponseAuditor reviews a generated draft against safety and tone policy
// before it reaches the user. The verdict comes back from the completion
// service as a structured JSON object validated at this boundary; an
// unparseable payload is a transient completion failure, never a silent
// PASS.
type ResponseAuditor struct {
	provider CompletionProvider
	logger   *zap.Logger
}

// NewResponseAuditor creates a new response auditor
func NewResponseAuditor(provider CompletionProvider, logger *zap.Logger) *ResponseAuditor {
	return &ResponseAuditor{
		provider: provider,
		logger:   logger,
	}
}

const auditorSystemPrompt = `You audit draft coaching messages before they reach users. Evaluate in this fixed precedence:

1. REJECT if the draft contains medical, financial, or legal prescriptive advice, or asserts facts absent from the supplied analytics data.
2. SOFTEN if the draft is overly imperative (pervasive "must"/"should" phrasing). Provide a revision that preserves the intent but reduces prescriptiveness. Keep any bracket tags like [AUTO_LOG: ...] or [UPDATE_PROFILE: ...] intact in the revision.
3. PASS otherwise.

Respond with a JSON object:
{"decision": "PASS" | "SOFTEN" | "REJECT", "critique": "<one or two sentences>", "suggested_revision": "<full revised text, only when decision is SOFTEN>"}`

// Audit reviews the draft and returns a verdict
func (a *ResponseAuditor) Audit(ctx context.Context, draft string, profile *models.Profile) (*models.AuditVerdict, error) {
	goal := models.DefaultPrimaryGoal
	if profile != nil && profile.PrimaryGoal != "" {
		goal = profile.PrimaryGoal
	}

	prompt := fmt.Sprintf("User's primary goal: %s\n\nDraft to audit:\n%s", goal, draft)

	content, err := a.provider.Complete(ctx, CompletionRequest{
		Operation: "audit",
		System:    auditorSystemPrompt,
		Messages:  []ChatMessage{{Role: "user", Content: prompt}},
		JSONMode:  true,
		MaxTokens: analysisMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to audit draft: %w", err)
	}

	verdict, err := parseAuditVerdict(content)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("audit_verdict_unparseable",
				zap.Int("response_length", len(content)),
				zap.String("response_preview", SanitizeResponse(content, false)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return verdict, nil
}

// parseAuditVerdict validates the structured verdict payload. Decisions
// outside the enumeration and SOFTEN verdicts without a revision are
// malformed.
func parseAuditVerdict(content string) (*models.AuditVerdict, error) {
	var payload struct {
		Decision          string `json:"decision"`
		Critique          string `json:"critique"`
		SuggestedRevision string `json:"suggested_revision"`
	}

	if err := json.Unmarshal([]byte(extractJSONObject(content)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}

	decision := models.AuditDecision(strings.ToUpper(strings.TrimSpace(payload.Decision)))
	switch decision {
	case models.AuditPass, models.AuditSoften, models.AuditReject:
	default:
		return nil, fmt.Errorf("%w: unknown audit decision %q", ErrMalformedCompletion, payload.Decision)
	}

	verdict := &models.AuditVerdict{
		Decision: decision,
		Critique: payload.Critique,
	}

	if decision == models.AuditSoften {
		revision := strings.TrimSpace(payload.SuggestedRevision)
		if revision == "" {
			return nil, fmt.Errorf("%w: SOFTEN verdict without a revision", ErrMalformedCompletion)
		}
		verdict.SuggestedRevision = revision
	}

	return verdict, nil
}

// extractJSONObject trims any prose the model wrapped around a JSON
// object. Returns the input unchanged when no braces are found so
// json.Unmarshal reports the original content.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > 0 && content[0] == '{' {
		return content
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		return content[start : end+1]
	}

	return content
}
