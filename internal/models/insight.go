package models

import (
	"time"

	"github.com/google/uuid"
)

// Insight summary period types.
const (
	PeriodTypeChat   = "chat"
	PeriodTypeWeekly = "weekly"
)

// InsightSummary is a persisted conclusion from a pipeline run or a
// periodic rollup. Append-only; the most recent few are replayed as
// memory context into future generations.
type InsightSummary struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	PeriodType        string         `json:"period_type"`
	PeriodStart       time.Time      `json:"period_start"`
	PeriodEnd         time.Time      `json:"period_end"`
	FocusDistribution map[string]int `json:"focus_distribution,omitempty"`
	KeyInsight        string         `json:"key_insight"`
	GeneratedAt       time.Time      `json:"generated_at"`
}
