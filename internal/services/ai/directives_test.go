package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestExtractDirectivesAutoLog(t *testing.T) {
	t.Parallel()

	text := "Great work on the run! [AUTO_LOG: Exercise, 45, morning run]"
	clean, directives := ExtractDirectives(text)

	if clean != "Great work on the run!" {
		t.Errorf("clean = %q, want tag stripped", clean)
	}
	if directives.AutoLog == nil {
		t.Fatal("AutoLog = nil, want directive")
	}
	if directives.AutoLog.ActivityName != "Exercise" {
		t.Errorf("ActivityName = %q, want Exercise", directives.AutoLog.ActivityName)
	}
	if directives.AutoLog.DurationMinutes != 45 {
		t.Errorf("DurationMinutes = %d, want 45", directives.AutoLog.DurationMinutes)
	}
	if directives.AutoLog.Note != "morning run" {
		t.Errorf("Note = %q, want morning run", directives.AutoLog.Note)
	}
	if directives.ProfileUpdate != nil {
		t.Errorf("ProfileUpdate = %+v, want nil", directives.ProfileUpdate)
	}
}

func TestExtractDirectivesProfileUpdate(t *testing.T) {
	t.Parallel()

	text := "Updating your plan. [UPDATE_PROFILE: Run a marathon, Exercise, Sleep]"
	clean, directives := ExtractDirectives(text)

	if strings.Contains(clean, "UPDATE_PROFILE") {
		t.Errorf("clean = %q, want tag stripped", clean)
	}
	if directives.ProfileUpdate == nil {
		t.Fatal("ProfileUpdate = nil, want directive")
	}
	if directives.ProfileUpdate.Goal != "Run a marathon" {
		t.Errorf("Goal = %q, want Run a marathon", directives.ProfileUpdate.Goal)
	}
	wantFocus := []string{"Exercise", "Sleep"}
	if len(directives.ProfileUpdate.FocusAreas) != len(wantFocus) {
		t.Fatalf("FocusAreas = %v, want %v", directives.ProfileUpdate.FocusAreas, wantFocus)
	}
	for i, area := range wantFocus {
		if directives.ProfileUpdate.FocusAreas[i] != area {
			t.Errorf("FocusAreas[%d] = %q, want %q", i, directives.ProfileUpdate.FocusAreas[i], area)
		}
	}
}

func TestExtractDirectivesEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		wantClean   string
		wantAutoLog bool
		wantProfile bool
	}{
		{
			name:      "no tags",
			text:      "Keep it up!",
			wantClean: "Keep it up!",
		},
		{
			name:        "note containing commas",
			text:        "[AUTO_LOG: Reading, 30, chapter 4, then notes]",
			wantClean:   "",
			wantAutoLog: true,
		},
		{
			name:      "malformed minutes stripped but not applied",
			text:      "Done. [AUTO_LOG: Exercise, lots, run]",
			wantClean: "Done.",
		},
		{
			name:      "zero minutes rejected",
			text:      "[AUTO_LOG: Exercise, 0, nothing]",
			wantClean: "",
		},
		{
			name:      "lowercase keyword is not a tag",
			text:      "[auto_log: Exercise, 30, run]",
			wantClean: "[auto_log: Exercise, 30, run]",
		},
		{
			name:        "empty goal keeps focus areas",
			text:        "[UPDATE_PROFILE: , Sleep]",
			wantClean:   "",
			wantProfile: true,
		},
		{
			name:      "all-empty profile update is dropped",
			text:      "[UPDATE_PROFILE: , ]",
			wantClean: "",
		},
		{
			name:        "both tags in one draft",
			text:        "Nice. [AUTO_LOG: Exercise, 20, walk] [UPDATE_PROFILE: Sleep more, Sleep]",
			wantClean:   "Nice.",
			wantAutoLog: true,
			wantProfile: true,
		},
		{
			name:        "second occurrence stripped but only first applied",
			text:        "[AUTO_LOG: Exercise, 20, walk] and [AUTO_LOG: Reading, 10, book]",
			wantClean:   "and",
			wantAutoLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clean, directives := ExtractDirectives(tt.text)
			if clean != tt.wantClean {
				t.Errorf("clean = %q, want %q", clean, tt.wantClean)
			}
			if (directives.AutoLog != nil) != tt.wantAutoLog {
				t.Errorf("AutoLog = %+v, want present=%v", directives.AutoLog, tt.wantAutoLog)
			}
			if (directives.ProfileUpdate != nil) != tt.wantProfile {
				t.Errorf("ProfileUpdate = %+v, want present=%v", directives.ProfileUpdate, tt.wantProfile)
			}
		})
	}
}

func TestExtractDirectivesFirstOccurrenceWins(t *testing.T) {
	t.Parallel()

	_, directives := ExtractDirectives("[AUTO_LOG: Exercise, 20, walk] [AUTO_LOG: Reading, 10, book]")
	if directives.AutoLog == nil || directives.AutoLog.ActivityName != "Exercise" {
		t.Errorf("AutoLog = %+v, want first occurrence (Exercise)", directives.AutoLog)
	}
}

// mockActivityRepo resolves a fixed catalog by exact name
type mockActivityRepo struct {
	activities map[string]*models.Activity
}

func (m *mockActivityRepo) GetByName(_ context.Context, name string) (*models.Activity, error) {
	if activity, ok := m.activities[name]; ok {
		return activity, nil
	}
	return nil, errors.New("activity not found")
}

func (m *mockActivityRepo) List(_ context.Context) ([]*models.Activity, error) {
	out := make([]*models.Activity, 0, len(m.activities))
	for _, activity := range m.activities {
		out = append(out, activity)
	}
	return out, nil
}

type captureLogRepo struct {
	created []*models.ActivityLog
	err     error
}

func (m *captureLogRepo) Create(_ context.Context, log *models.ActivityLog) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, log)
	return nil
}

func (m *captureLogRepo) GetInRange(_ context.Context, _ uuid.UUID, _ time.Time) ([]*models.ActivityLog, error) {
	return nil, nil
}

func (m *captureLogRepo) GetDistinctLogDates(_ context.Context, _ uuid.UUID) ([]time.Time, error) {
	return nil, nil
}

type captureProfileRepo struct {
	profile  *models.Profile
	upserted *models.Profile
	getErr   error
}

func (m *captureProfileRepo) GetByUserID(_ context.Context, _ uuid.UUID) (*models.Profile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.profile, nil
}

func (m *captureProfileRepo) Upsert(_ context.Context, profile *models.Profile) error {
	m.upserted = profile
	return nil
}

func TestApplyAutoLogResolvesExactName(t *testing.T) {
	t.Parallel()

	exerciseID := uuid.New()
	activityRepo := &mockActivityRepo{activities: map[string]*models.Activity{
		"Exercise": {ID: exerciseID, Name: "Exercise", Category: "Fitness"},
	}}
	logRepo := &captureLogRepo{}
	applier := NewDirectiveApplier(activityRepo, logRepo, &captureProfileRepo{}, zap.NewNop())

	userID := uuid.New()
	applier.Apply(context.Background(), userID, ExtractedDirectives{
		AutoLog: &AutoLogDirective{ActivityName: "Exercise", DurationMinutes: 45, Note: "morning run"},
	})

	if len(logRepo.created) != 1 {
		t.Fatalf("created %d logs, want 1", len(logRepo.created))
	}
	log := logRepo.created[0]
	if log.ActivityID != exerciseID {
		t.Errorf("ActivityID = %s, want %s", log.ActivityID, exerciseID)
	}
	if log.DurationMinutes != 45 {
		t.Errorf("DurationMinutes = %d, want 45", log.DurationMinutes)
	}
	if !log.Completed {
		t.Error("Completed = false, want true")
	}
	if log.Notes != ChatLogNotePrefix+"morning run" {
		t.Errorf("Notes = %q, want prefixed note", log.Notes)
	}
}

func TestApplyAutoLogFallsBackToPersonal(t *testing.T) {
	t.Parallel()

	personalID := uuid.New()
	activityRepo := &mockActivityRepo{activities: map[string]*models.Activity{
		models.FallbackActivityName: {ID: personalID, Name: models.FallbackActivityName, Category: "Personal"},
	}}
	logRepo := &captureLogRepo{}
	applier := NewDirectiveApplier(activityRepo, logRepo, &captureProfileRepo{}, zap.NewNop())

	applier.Apply(context.Background(), uuid.New(), ExtractedDirectives{
		AutoLog: &AutoLogDirective{ActivityName: "exercise", DurationMinutes: 30, Note: "case mismatch"},
	})

	if len(logRepo.created) != 1 {
		t.Fatalf("created %d logs, want 1", len(logRepo.created))
	}
	if logRepo.created[0].ActivityID != personalID {
		t.Errorf("ActivityID = %s, want fallback %s", logRepo.created[0].ActivityID, personalID)
	}
}

func TestApplyAutoLogSkipsSilentlyWhenNothingResolves(t *testing.T) {
	t.Parallel()

	activityRepo := &mockActivityRepo{activities: map[string]*models.Activity{}}
	logRepo := &captureLogRepo{}
	applier := NewDirectiveApplier(activityRepo, logRepo, &captureProfileRepo{}, zap.NewNop())

	applier.Apply(context.Background(), uuid.New(), ExtractedDirectives{
		AutoLog: &AutoLogDirective{ActivityName: "Mystery", DurationMinutes: 30},
	})

	if len(logRepo.created) != 0 {
		t.Errorf("created %d logs, want 0", len(logRepo.created))
	}
}

func TestApplyProfileUpdatePartialFields(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	profileRepo := &captureProfileRepo{profile: &models.Profile{
		UserID:      userID,
		PrimaryGoal: "Sleep better",
		FocusAreas:  []string{"Sleep"},
		TimeHorizon: "monthly",
	}}
	applier := NewDirectiveApplier(&mockActivityRepo{}, &captureLogRepo{}, profileRepo, zap.NewNop())

	applier.Apply(context.Background(), userID, ExtractedDirectives{
		ProfileUpdate: &ProfileUpdateDirective{Goal: "Run a marathon"},
	})

	if profileRepo.upserted == nil {
		t.Fatal("Upsert not called")
	}
	if profileRepo.upserted.PrimaryGoal != "Run a marathon" {
		t.Errorf("PrimaryGoal = %q, want Run a marathon", profileRepo.upserted.PrimaryGoal)
	}
	if len(profileRepo.upserted.FocusAreas) != 1 || profileRepo.upserted.FocusAreas[0] != "Sleep" {
		t.Errorf("FocusAreas = %v, want untouched [Sleep]", profileRepo.upserted.FocusAreas)
	}
	if profileRepo.upserted.TimeHorizon != "monthly" {
		t.Errorf("TimeHorizon = %q, want untouched", profileRepo.upserted.TimeHorizon)
	}
}

func TestApplyProfileUpdateCreatesPlaceholderWhenMissing(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	profileRepo := &captureProfileRepo{getErr: errors.New("profile not found")}
	applier := NewDirectiveApplier(&mockActivityRepo{}, &captureLogRepo{}, profileRepo, zap.NewNop())

	applier.Apply(context.Background(), userID, ExtractedDirectives{
		ProfileUpdate: &ProfileUpdateDirective{FocusAreas: []string{"Exercise"}},
	})

	if profileRepo.upserted == nil {
		t.Fatal("Upsert not called")
	}
	if profileRepo.upserted.UserID != userID {
		t.Errorf("UserID = %s, want %s", profileRepo.upserted.UserID, userID)
	}
	if profileRepo.upserted.PrimaryGoal != models.DefaultPrimaryGoal {
		t.Errorf("PrimaryGoal = %q, want placeholder", profileRepo.upserted.PrimaryGoal)
	}
}
