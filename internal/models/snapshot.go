package models

// OnboardingStatus tracks progress toward the minimum data volume the
// confidence gate wants before permitting full analysis.
type OnboardingStatus struct {
	MinutesProgress float64 `json:"minutes_progress"`
	DaysProgress    float64 `json:"days_progress"`
	OverallProgress float64 `json:"overall_progress"`
	IsComplete      bool    `json:"is_complete"`
}

// ActivitySnapshot is the rolling statistics bundle fed to the AI
// pipeline. Derived per request from raw logs and outcomes; never
// persisted directly.
type ActivitySnapshot struct {
	PeriodDays           int              `json:"period_days"`
	TotalActiveMinutes   int              `json:"total_active_minutes"`
	ActivityDistribution map[string]int   `json:"activity_distribution"`
	OutcomeCount         int              `json:"outcome_count"`
	RecentOutcomes       []OutcomeSummary `json:"recent_outcomes"`
	DaysLogged           int              `json:"days_logged"`
	StreakDays           int              `json:"streak_days"`
	Onboarding           OnboardingStatus `json:"onboarding"`
}
