package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockSnapshots struct {
	snapshot *models.ActivitySnapshot
	err      error
}

func (m *mockSnapshots) SnapshotForPeriod(_ context.Context, _ uuid.UUID, _ int) (*models.ActivitySnapshot, error) {
	return m.snapshot, m.err
}

type captureInsightRepo struct {
	created []*models.InsightSummary
	latest  []*models.InsightSummary
}

func (m *captureInsightRepo) Create(_ context.Context, summary *models.InsightSummary) error {
	m.created = append(m.created, summary)
	return nil
}

func (m *captureInsightRepo) GetLatest(_ context.Context, _ uuid.UUID, _ int) ([]*models.InsightSummary, error) {
	return m.latest, nil
}

type captureChatRepo struct {
	appended []*models.ChatMessage
	recent   []*models.ChatMessage
}

func (m *captureChatRepo) Append(_ context.Context, msg *models.ChatMessage) error {
	m.appended = append(m.appended, msg)
	return nil
}

func (m *captureChatRepo) GetRecent(_ context.Context, _ uuid.UUID, _ int) ([]*models.ChatMessage, error) {
	return m.recent, nil
}

type pipelineFixture struct {
	pipeline    *Pipeline
	provider    *scriptedProvider
	activityLog *captureLogRepo
	profiles    *captureProfileRepo
	insights    *captureInsightRepo
	chat        *captureChatRepo
}

func newPipelineFixture(provider *scriptedProvider, snapshot *models.ActivitySnapshot) *pipelineFixture {
	logger := zap.NewNop()

	exerciseID := uuid.New()
	activityRepo := &mockActivityRepo{activities: map[string]*models.Activity{
		"Exercise": {ID: exerciseID, Name: "Exercise", Category: "Fitness"},
		models.FallbackActivityName: {
			ID: uuid.New(), Name: models.FallbackActivityName, Category: "Personal",
		},
	}}

	f := &pipelineFixture{
		provider:    provider,
		activityLog: &captureLogRepo{},
		profiles: &captureProfileRepo{profile: &models.Profile{
			PrimaryGoal: "Get fitter",
			FocusAreas:  []string{"Exercise"},
		}},
		insights: &captureInsightRepo{},
		chat:     &captureChatRepo{},
	}

	f.pipeline = NewPipeline(
		&mockSnapshots{snapshot: snapshot},
		NewConfidenceGate(provider, logger),
		NewGuidanceGenerator(provider, logger),
		NewResponseAuditor(provider, logger),
		NewDirectiveApplier(activityRepo, f.activityLog, f.profiles, logger),
		f.profiles,
		f.insights,
		f.chat,
		logger,
	)
	return f
}

func allowedSnapshot() *models.ActivitySnapshot {
	return &models.ActivitySnapshot{
		PeriodDays:           7,
		TotalActiveMinutes:   150,
		DaysLogged:           5,
		StreakDays:           3,
		ActivityDistribution: map[string]int{"Fitness": 150},
	}
}

func TestPipelineSuccessPath(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"gate":     `{"reason": "Plenty of data to work with."}`,
		"generate": "You are building momentum toward your goal. [AUTO_LOG: Exercise, 45, morning run]",
		"audit":    `{"decision": "PASS", "critique": "Grounded."}`,
	}}
	f := newPipelineFixture(provider, allowedSnapshot())

	result, err := f.pipeline.Run(context.Background(), uuid.New(), "How am I doing?", 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != StatusSuccess {
		t.Errorf("Status = %s, want %s", result.Status, StatusSuccess)
	}
	if strings.Contains(result.Analysis, "AUTO_LOG") {
		t.Errorf("Analysis = %q, want directive tag stripped", result.Analysis)
	}
	if result.Audit == nil || result.Audit.Decision != models.AuditPass {
		t.Errorf("Audit = %+v, want PASS verdict", result.Audit)
	}

	if len(f.activityLog.created) != 1 {
		t.Fatalf("created %d activity logs, want 1", len(f.activityLog.created))
	}
	if f.activityLog.created[0].DurationMinutes != 45 {
		t.Errorf("DurationMinutes = %d, want 45", f.activityLog.created[0].DurationMinutes)
	}

	if len(f.insights.created) != 1 {
		t.Fatalf("created %d insight summaries, want 1", len(f.insights.created))
	}
	summary := f.insights.created[0]
	if summary.PeriodType != models.PeriodTypeChat {
		t.Errorf("PeriodType = %q, want %q", summary.PeriodType, models.PeriodTypeChat)
	}
	if summary.KeyInsight != result.Analysis {
		t.Errorf("KeyInsight = %q, want final text", summary.KeyInsight)
	}
	if summary.FocusDistribution["Fitness"] != 150 {
		t.Errorf("FocusDistribution = %v, want snapshot distribution", summary.FocusDistribution)
	}

	if len(f.chat.appended) != 2 {
		t.Fatalf("appended %d chat messages, want 2", len(f.chat.appended))
	}
	if f.chat.appended[0].Role != models.ChatRoleUser || f.chat.appended[0].Content != "How am I doing?" {
		t.Errorf("first appended message = %+v, want inbound user message", f.chat.appended[0])
	}
	if f.chat.appended[1].Role != models.ChatRoleAI || f.chat.appended[1].Content != result.Analysis {
		t.Errorf("second appended message = %+v, want final AI message", f.chat.appended[1])
	}
}

func TestPipelineSoftenSubstitutesRevision(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"generate": "You must train every single day.",
		"audit":    `{"decision": "SOFTEN", "critique": "Too imperative.", "suggested_revision": "Training most days could help."}`,
	}}
	f := newPipelineFixture(provider, allowedSnapshot())

	result, err := f.pipeline.Run(context.Background(), uuid.New(), "", 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != StatusSuccess {
		t.Errorf("Status = %s, want %s", result.Status, StatusSuccess)
	}
	if result.Analysis != "Training most days could help." {
		t.Errorf("Analysis = %q, want the revision text", result.Analysis)
	}
	if len(f.insights.created) != 1 || f.insights.created[0].KeyInsight != result.Analysis {
		t.Errorf("insight = %+v, want revision persisted", f.insights.created)
	}

	// Empty query: only the AI message is appended.
	if len(f.chat.appended) != 1 || f.chat.appended[0].Role != models.ChatRoleAI {
		t.Errorf("appended = %+v, want single AI message", f.chat.appended)
	}
}

func TestPipelineRejectPersistsNothing(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"generate": "Take 400mg of ibuprofen daily. [AUTO_LOG: Exercise, 45, run] [UPDATE_PROFILE: New goal, Focus]",
		"audit":    `{"decision": "REJECT", "critique": "Medical advice."}`,
	}}
	f := newPipelineFixture(provider, allowedSnapshot())

	result, err := f.pipeline.Run(context.Background(), uuid.New(), "what should I take?", 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != StatusInternalError {
		t.Errorf("Status = %s, want %s", result.Status, StatusInternalError)
	}
	if result.Analysis != "" {
		t.Errorf("Analysis = %q, want empty on rejection", result.Analysis)
	}
	if len(f.activityLog.created) != 0 {
		t.Errorf("created %d activity logs, want 0 from rejected draft", len(f.activityLog.created))
	}
	if f.profiles.upserted != nil {
		t.Errorf("profile upserted = %+v, want no mutation from rejected draft", f.profiles.upserted)
	}
	if len(f.insights.created) != 0 {
		t.Errorf("created %d insight summaries, want 0", len(f.insights.created))
	}
	if len(f.chat.appended) != 0 {
		t.Errorf("appended %d chat messages, want 0", len(f.chat.appended))
	}
}

func TestPipelineGateDenialRunsOnboardingPath(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"generate_onboarding": "Welcome! Nice first steps. [AUTO_LOG: Exercise, 20, first walk]",
	}}
	snapshot := &models.ActivitySnapshot{
		PeriodDays:         7,
		TotalActiveMinutes: 20,
		DaysLogged:         1,
	}
	f := newPipelineFixture(provider, snapshot)

	result, err := f.pipeline.Run(context.Background(), uuid.New(), "I went for a walk", 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != StatusDataInsufficient {
		t.Errorf("Status = %s, want %s", result.Status, StatusDataInsufficient)
	}
	if result.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %s, want LOW", result.Confidence)
	}
	if strings.Contains(result.Message, "AUTO_LOG") {
		t.Errorf("Message = %q, want directive stripped", result.Message)
	}

	for _, op := range provider.callOperations() {
		if op == "generate" || op == "audit" {
			t.Errorf("operation %q invoked on the denied path", op)
		}
	}

	// The directive still applies and the exchange is logged, but no
	// insight summary is written.
	if len(f.activityLog.created) != 1 {
		t.Errorf("created %d activity logs, want 1", len(f.activityLog.created))
	}
	if len(f.insights.created) != 0 {
		t.Errorf("created %d insight summaries, want 0 on denial", len(f.insights.created))
	}
	if len(f.chat.appended) != 2 {
		t.Errorf("appended %d chat messages, want 2", len(f.chat.appended))
	}
}

func TestPipelineZeroDaysDenies(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: map[string]string{
		"generate_onboarding": "Log your first activity to get started!",
	}}
	snapshot := &models.ActivitySnapshot{
		PeriodDays:         7,
		TotalActiveMinutes: 999,
		DaysLogged:         0,
	}
	f := newPipelineFixture(provider, snapshot)

	result, err := f.pipeline.Run(context.Background(), uuid.New(), "", 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != StatusDataInsufficient {
		t.Errorf("Status = %s, want %s with zero days logged", result.Status, StatusDataInsufficient)
	}
}

func TestPipelineHistoryIsChronological(t *testing.T) {
	t.Parallel()

	now := time.Now()
	provider := &scriptedProvider{responses: map[string]string{
		"generate": "Steady progress.",
		"audit":    `{"decision": "PASS", "critique": "ok"}`,
	}}
	f := newPipelineFixture(provider, allowedSnapshot())
	// Stored newest-first, as the repository returns them.
	f.chat.recent = []*models.ChatMessage{
		{Role: models.ChatRoleAI, Content: "second", Timestamp: now},
		{Role: models.ChatRoleUser, Content: "first", Timestamp: now.Add(-time.Minute)},
	}

	if _, err := f.pipeline.Run(context.Background(), uuid.New(), "", 7); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var generateCall *CompletionRequest
	for i := range provider.calls {
		if provider.calls[i].Operation == "generate" {
			generateCall = &provider.calls[i]
			break
		}
	}
	if generateCall == nil {
		t.Fatal("generate was not invoked")
	}

	// history (oldest first) + current prompt
	if len(generateCall.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(generateCall.Messages))
	}
	if generateCall.Messages[0].Content != "first" || generateCall.Messages[0].Role != "user" {
		t.Errorf("Messages[0] = %+v, want oldest user message first", generateCall.Messages[0])
	}
	if generateCall.Messages[1].Content != "second" || generateCall.Messages[1].Role != "assistant" {
		t.Errorf("Messages[1] = %+v, want AI message mapped to assistant", generateCall.Messages[1])
	}
}
