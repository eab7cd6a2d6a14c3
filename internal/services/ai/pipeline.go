package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResultStatus is the outcome class of a pipeline run
type ResultStatus string

const (
	// StatusSuccess means a draft passed the audit (possibly softened)
	StatusSuccess ResultStatus = "success"
	// StatusDataInsufficient means the gate denied full analysis. Not an
	// error; a defined control-flow branch.
	StatusDataInsufficient ResultStatus = "data_insufficient"
	// StatusInternalError means the auditor rejected the draft. Retrying
	// the same input will not change the outcome.
	StatusInternalError ResultStatus = "internal_error"
)

// PipelineResult is what a pipeline run returns to the handler
type PipelineResult struct {
	Status     ResultStatus          `json:"status"`
	Confidence models.ConfidenceTier `json:"confidence,omitempty"`
	Message    string                `json:"message,omitempty"`
	Analysis   string                `json:"analysis,omitempty"`
	Audit      *models.AuditVerdict  `json:"reflection_audit,omitempty"`
}

// SnapshotSource produces the rolling statistics a pipeline run reasons
// over. Implemented by the analytics engine.
type SnapshotSource interface {
	SnapshotForPeriod(ctx context.Context, userID uuid.UUID, days int) (*models.ActivitySnapshot, error)
}

// Pipeline runs one guidance request through aggregate → gate → generate →
// audit → extract/persist. Strictly sequential per request; all shared
// state lives in the store, so concurrent runs are independent.
type Pipeline struct {
	snapshots   SnapshotSource
	gate        *ConfidenceGate
	generator   *GuidanceGenerator
	auditor     *ResponseAuditor
	applier     *DirectiveApplier
	profileRepo database.ProfileRepositoryInterface
	insightRepo database.InsightRepositoryInterface
	chatRepo    database.ChatRepositoryInterface
	logger      *zap.Logger
}

// NewPipeline creates a new guidance pipeline
func NewPipeline(
	snapshots SnapshotSource,
	gate *ConfidenceGate,
	generator *GuidanceGenerator,
	auditor *ResponseAuditor,
	applier *DirectiveApplier,
	profileRepo database.ProfileRepositoryInterface,
	insightRepo database.InsightRepositoryInterface,
	chatRepo database.ChatRepositoryInterface,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		snapshots:   snapshots,
		gate:        gate,
		generator:   generator,
		auditor:     auditor,
		applier:     applier,
		profileRepo: profileRepo,
		insightRepo: insightRepo,
		chatRepo:    chatRepo,
		logger:      logger,
	}
}

// Run executes one pipeline run for the user. The query may be empty, in
// which case the generator gives a general progress read. An error return
// is a technical failure the caller may retry; gate denial and audit
// rejection are reported in the result, not as errors.
func (p *Pipeline) Run(ctx context.Context, userID uuid.UUID, query string, windowDays int) (*PipelineResult, error) {
	profile, err := p.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		profile = models.NewPlaceholderProfile(userID)
	}

	snapshot, err := p.snapshots.SnapshotForPeriod(ctx, userID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate snapshot: %w", err)
	}

	decision := p.gate.Evaluate(ctx, profile, snapshot)

	p.logger.Info("gate_decision",
		zap.String("user_id", userID.String()),
		zap.String("confidence", string(decision.Confidence)),
		zap.Bool("allow_reasoning", decision.AllowReasoning),
		zap.Int("total_minutes", snapshot.TotalActiveMinutes),
		zap.Int("days_logged", snapshot.DaysLogged),
	)

	history, err := p.recentHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	input := GenerationInput{
		Profile:  profile,
		Snapshot: snapshot,
		History:  history,
		Query:    query,
	}

	if !decision.AllowReasoning {
		return p.runOnboardingPath(ctx, userID, input, decision, query)
	}

	insights, err := p.insightRepo.GetLatest(ctx, userID, MaxInsightHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to load insight history: %w", err)
	}
	input.Insights = insights

	draft, err := p.generator.GenerateAnalysis(ctx, input)
	if err != nil {
		return nil, err
	}

	verdict, err := p.auditor.Audit(ctx, draft, profile)
	if err != nil {
		return nil, err
	}

	p.logger.Info("audit_verdict",
		zap.String("user_id", userID.String()),
		zap.String("decision", string(verdict.Decision)),
	)

	// A rejected draft is discarded wholesale: no directive processing,
	// no memory writes.
	if verdict.Decision == models.AuditReject {
		return &PipelineResult{
			Status:     StatusInternalError,
			Confidence: decision.Confidence,
			Message:    "The generated guidance did not pass review. Please try again.",
			Audit:      verdict,
		}, nil
	}

	finalText := draft
	if verdict.Decision == models.AuditSoften {
		finalText = verdict.SuggestedRevision
	}

	clean, directives := ExtractDirectives(finalText)
	p.applier.Apply(ctx, userID, directives)
	p.persistExchange(ctx, userID, query, clean, snapshot)

	return &PipelineResult{
		Status:     StatusSuccess,
		Confidence: decision.Confidence,
		Analysis:   clean,
		Audit:      verdict,
	}, nil
}

// runOnboardingPath produces the reduced acknowledgment when the gate
// denies full analysis. Directives still apply (the user may have told us
// about a completed activity) and the exchange is appended to the chat
// log, but no insight summary is written.
func (p *Pipeline) runOnboardingPath(ctx context.Context, userID uuid.UUID, input GenerationInput, decision models.GateDecision, query string) (*PipelineResult, error) {
	message, err := p.generator.GenerateOnboardingAck(ctx, input, decision.Reason)
	if err != nil {
		return nil, err
	}

	clean, directives := ExtractDirectives(message)
	p.applier.Apply(ctx, userID, directives)
	p.appendChat(ctx, userID, query, clean)

	return &PipelineResult{
		Status:     StatusDataInsufficient,
		Confidence: decision.Confidence,
		Message:    clean,
	}, nil
}

// recentHistory loads the most recent chat messages oldest-first
func (p *Pipeline) recentHistory(ctx context.Context, userID uuid.UUID) ([]ChatMessage, error) {
	stored, err := p.chatRepo.GetRecent(ctx, userID, MaxChatHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	history := make([]ChatMessage, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		role := "user"
		if stored[i].Role == models.ChatRoleAI {
			role = "assistant"
		}
		history = append(history, ChatMessage{Role: role, Content: stored[i].Content})
	}
	return history, nil
}

// persistExchange writes the insight summary and the chat rows. These are
// independent best-effort side effects, not an atomic unit; each failure
// is logged and the others proceed.
func (p *Pipeline) persistExchange(ctx context.Context, userID uuid.UUID, query, finalText string, snapshot *models.ActivitySnapshot) {
	now := time.Now().UTC()
	summary := &models.InsightSummary{
		ID:                uuid.New(),
		UserID:            userID,
		PeriodType:        models.PeriodTypeChat,
		PeriodStart:       now.AddDate(0, 0, -snapshot.PeriodDays),
		PeriodEnd:         now,
		FocusDistribution: snapshot.ActivityDistribution,
		KeyInsight:        finalText,
	}
	if err := p.insightRepo.Create(ctx, summary); err != nil {
		p.logger.Warn("insight_write_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	p.appendChat(ctx, userID, query, finalText)
}

// appendChat appends the inbound user message (when present) and the
// final AI message to the conversation log
func (p *Pipeline) appendChat(ctx context.Context, userID uuid.UUID, query, finalText string) {
	if query != "" {
		userMsg := &models.ChatMessage{
			ID:      uuid.New(),
			UserID:  userID,
			Role:    models.ChatRoleUser,
			Content: query,
		}
		if err := p.chatRepo.Append(ctx, userMsg); err != nil {
			p.logger.Warn("chat_append_failed",
				zap.String("user_id", userID.String()),
				zap.String("role", string(models.ChatRoleUser)),
				zap.Error(err),
			)
		}
	}

	aiMsg := &models.ChatMessage{
		ID:      uuid.New(),
		UserID:  userID,
		Role:    models.ChatRoleAI,
		Content: finalText,
	}
	if err := p.chatRepo.Append(ctx, aiMsg); err != nil {
		p.logger.Warn("chat_append_failed",
			zap.String("user_id", userID.String()),
			zap.String("role", string(models.ChatRoleAI)),
			zap.Error(err),
		)
	}
}
