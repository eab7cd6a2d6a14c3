package ai

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatLogNotePrefix marks activity log rows created from chat directives
const ChatLogNotePrefix = "[Logged via chat] "

// Tag grammar. Case-sensitive keywords, bracket-delimited, comma-separated
// fields. Kept exactly as generated text embeds it; harden here, not in
// the pipeline.
var (
	autoLogPattern       = regexp.MustCompile(`\[AUTO_LOG:([^\]]*)\]`)
	updateProfilePattern = regexp.MustCompile(`\[UPDATE_PROFILE:([^\]]*)\]`)
)

// AutoLogDirective asks for a completed activity log row
type AutoLogDirective struct {
	ActivityName    string
	DurationMinutes int
	Note            string
}

// ProfileUpdateDirective asks for a partial profile update. Empty fields
// leave the corresponding profile fields untouched.
type ProfileUpdateDirective struct {
	Goal       string
	FocusAreas []string
}

// ExtractedDirectives holds at most one directive of each kind
type ExtractedDirectives struct {
	AutoLog       *AutoLogDirective
	ProfileUpdate *ProfileUpdateDirective
}

// ExtractDirectives scans the text for directive tags, parses at most one
// of each kind (the first occurrence), and returns the text with all tag
// substrings removed. Tags are stripped even when their bodies fail to
// parse; a malformed tag must never reach the user or abort the response.
func ExtractDirectives(text string) (string, ExtractedDirectives) {
	var directives ExtractedDirectives

	if match := autoLogPattern.FindStringSubmatch(text); match != nil {
		directives.AutoLog = parseAutoLog(match[1])
	}
	if match := updateProfilePattern.FindStringSubmatch(text); match != nil {
		directives.ProfileUpdate = parseProfileUpdate(match[1])
	}

	clean := autoLogPattern.ReplaceAllString(text, "")
	clean = updateProfilePattern.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean), directives
}

// parseAutoLog parses "<name>, <minutes>, <note>". The note may itself
// contain commas. Returns nil when the body is malformed.
func parseAutoLog(body string) *AutoLogDirective {
	parts := strings.SplitN(body, ",", 3)
	if len(parts) < 2 {
		return nil
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return nil
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minutes <= 0 {
		return nil
	}

	note := ""
	if len(parts) == 3 {
		note = strings.TrimSpace(parts[2])
	}

	return &AutoLogDirective{
		ActivityName:    name,
		DurationMinutes: minutes,
		Note:            note,
	}
}

// parseProfileUpdate parses "<goal_or_empty>, <focus>, <focus>, ...".
// Returns nil when every field is empty.
func parseProfileUpdate(body string) *ProfileUpdateDirective {
	parts := strings.Split(body, ",")

	directive := &ProfileUpdateDirective{
		Goal: strings.TrimSpace(parts[0]),
	}
	for _, part := range parts[1:] {
		if area := strings.TrimSpace(part); area != "" {
			directive.FocusAreas = append(directive.FocusAreas, area)
		}
	}

	if directive.Goal == "" && len(directive.FocusAreas) == 0 {
		return nil
	}

	return directive
}

// DirectiveApplier performs the side effects directives ask for. Every
// failure is logged and swallowed; directive application is best-effort
// and must never abort the response.
type DirectiveApplier struct {
	activityRepo database.ActivityRepositoryInterface
	logRepo      database.ActivityLogRepositoryInterface
	profileRepo  database.ProfileRepositoryInterface
	logger       *zap.Logger
}

// NewDirectiveApplier creates a new directive applier
func NewDirectiveApplier(
	activityRepo database.ActivityRepositoryInterface,
	logRepo database.ActivityLogRepositoryInterface,
	profileRepo database.ProfileRepositoryInterface,
	logger *zap.Logger,
) *DirectiveApplier {
	return &DirectiveApplier{
		activityRepo: activityRepo,
		logRepo:      logRepo,
		profileRepo:  profileRepo,
		logger:       logger,
	}
}

// Apply performs the extracted directives for the user
func (a *DirectiveApplier) Apply(ctx context.Context, userID uuid.UUID, directives ExtractedDirectives) {
	if directives.AutoLog != nil {
		a.applyAutoLog(ctx, userID, directives.AutoLog)
	}
	if directives.ProfileUpdate != nil {
		a.applyProfileUpdate(ctx, userID, directives.ProfileUpdate)
	}
}

// applyAutoLog resolves the activity name against the catalog with an
// exact case-sensitive match, falling back to the generic catalog entry;
// when neither resolves the log is silently skipped.
func (a *DirectiveApplier) applyAutoLog(ctx context.Context, userID uuid.UUID, directive *AutoLogDirective) {
	activity, err := a.activityRepo.GetByName(ctx, directive.ActivityName)
	if err != nil {
		activity, err = a.activityRepo.GetByName(ctx, models.FallbackActivityName)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("auto_log_unresolved",
					zap.String("user_id", userID.String()),
					zap.String("activity_name", directive.ActivityName),
					zap.Error(err),
				)
			}
			return
		}
	}

	log := &models.ActivityLog{
		ID:              uuid.New(),
		UserID:          userID,
		ActivityID:      activity.ID,
		Date:            time.Now().UTC(),
		DurationMinutes: directive.DurationMinutes,
		Completed:       true,
		Notes:           ChatLogNotePrefix + directive.Note,
	}

	if err := a.logRepo.Create(ctx, log); err != nil {
		if a.logger != nil {
			a.logger.Warn("auto_log_failed",
				zap.String("user_id", userID.String()),
				zap.String("activity_name", directive.ActivityName),
				zap.Error(err),
			)
		}
		return
	}

	if a.logger != nil {
		a.logger.Info("auto_log_created",
			zap.String("user_id", userID.String()),
			zap.String("activity_name", activity.Name),
			zap.Int("duration_minutes", directive.DurationMinutes),
		)
	}
}

// applyProfileUpdate applies only the fields the directive carries
func (a *DirectiveApplier) applyProfileUpdate(ctx context.Context, userID uuid.UUID, directive *ProfileUpdateDirective) {
	profile, err := a.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		profile = models.NewPlaceholderProfile(userID)
	}

	if directive.Goal != "" {
		profile.PrimaryGoal = directive.Goal
	}
	if len(directive.FocusAreas) > 0 {
		profile.FocusAreas = directive.FocusAreas
	}

	if err := a.profileRepo.Upsert(ctx, profile); err != nil {
		if a.logger != nil {
			a.logger.Warn("profile_update_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		return
	}

	if a.logger != nil {
		a.logger.Info("profile_updated_from_chat",
			zap.String("user_id", userID.String()),
			zap.Bool("goal_changed", directive.Goal != ""),
			zap.Int("focus_area_count", len(directive.FocusAreas)),
		)
	}
}
