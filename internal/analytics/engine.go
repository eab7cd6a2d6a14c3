package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultWindowDays is the default trailing window for snapshots
	DefaultWindowDays = 7

	// OnboardingMinutesTarget is the active-minutes target for onboarding
	OnboardingMinutesTarget = 120
	// OnboardingDaysTarget is the logged-days target for the days progress bar.
	// Note: completion only requires a single logged day; the 7-day figure
	// feeds the progress percentage, not the completion predicate.
	OnboardingDaysTarget = 7
)

// Engine aggregates raw activity and outcome rows into an
// ActivitySnapshot. Pure read; no side effects.
type Engine struct {
	logRepo     database.ActivityLogRepositoryInterface
	outcomeRepo database.OutcomeRepositoryInterface
}

// NewEngine creates a new analytics engine
func NewEngine(logRepo database.ActivityLogRepositoryInterface, outcomeRepo database.OutcomeRepositoryInterface) *Engine {
	return &Engine{
		logRepo:     logRepo,
		outcomeRepo: outcomeRepo,
	}
}

// SnapshotForPeriod computes the snapshot over the trailing window of the
// given number of days. A non-positive days value falls back to
// DefaultWindowDays.
func (e *Engine) SnapshotForPeriod(ctx context.Context, userID uuid.UUID, days int) (*models.ActivitySnapshot, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -days)

	logs, err := e.logRepo.GetInRange(ctx, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity logs: %w", err)
	}

	outcomes, err := e.outcomeRepo.GetInRange(ctx, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load outcomes: %w", err)
	}

	// Streak walks all-history log dates, not just the window.
	allDates, err := e.logRepo.GetDistinctLogDates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load log dates: %w", err)
	}

	totalMinutes := 0
	distribution := make(map[string]int)
	windowDays := make(map[time.Time]bool)
	for _, log := range logs {
		totalMinutes += log.DurationMinutes
		distribution[log.Category] += log.DurationMinutes
		windowDays[truncateToDay(log.Date)] = true
	}

	recentOutcomes := make([]models.OutcomeSummary, 0, len(outcomes))
	for _, o := range outcomes {
		recentOutcomes = append(recentOutcomes, models.OutcomeSummary{
			Type:  o.Type,
			Value: o.Value,
			Date:  o.Date,
		})
	}

	daysLogged := len(windowDays)

	return &models.ActivitySnapshot{
		PeriodDays:           days,
		TotalActiveMinutes:   totalMinutes,
		ActivityDistribution: distribution,
		OutcomeCount:         len(outcomes),
		RecentOutcomes:       recentOutcomes,
		DaysLogged:           daysLogged,
		StreakDays:           ComputeStreak(allDates, now),
		Onboarding:           ComputeOnboarding(totalMinutes, daysLogged),
	}, nil
}

// ComputeStreak counts consecutive calendar days with at least one log,
// walking backward from the most recent logged date. The streak is 0 when
// the most recent logged date is earlier than yesterday. Dates may be in
// any order; they are normalized to UTC days.
func ComputeStreak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := make(map[time.Time]bool, len(dates))
	var mostRecent time.Time
	for _, d := range dates {
		day := truncateToDay(d)
		days[day] = true
		if day.After(mostRecent) {
			mostRecent = day
		}
	}

	yesterday := truncateToDay(now).AddDate(0, 0, -1)
	if mostRecent.Before(yesterday) {
		return 0
	}

	streak := 0
	for day := mostRecent; days[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// ComputeOnboarding derives onboarding progress from window totals.
// Completion requires 120 active minutes and at least one logged day.
func ComputeOnboarding(totalMinutes, daysLogged int) models.OnboardingStatus {
	minutesProgress := float64(totalMinutes) / float64(OnboardingMinutesTarget) * 100
	if minutesProgress > 100 {
		minutesProgress = 100
	}

	daysProgress := float64(daysLogged) / float64(OnboardingDaysTarget) * 100
	if daysProgress > 100 {
		daysProgress = 100
	}

	return models.OnboardingStatus{
		MinutesProgress: minutesProgress,
		DaysProgress:    daysProgress,
		OverallProgress: (minutesProgress + daysProgress) / 2,
		IsComplete:      totalMinutes >= OnboardingMinutesTarget && daysLogged >= 1,
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
