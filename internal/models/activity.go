package models

import (
	"time"

	"github.com/google/uuid"
)

// FallbackActivityName is the generic catalog entry used when an
// auto-logged activity name does not resolve to a known activity.
const FallbackActivityName = "Personal"

// Activity is a catalog entry that logs reference by ID.
type Activity struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
}

// ActivityLog is a single logged occurrence of an activity.
type ActivityLog struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	ActivityID      uuid.UUID `json:"activity_id"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Completed       bool      `json:"completed"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	// ActivityName and Category are populated on reads that join the
	// catalog; they are not columns of the activity_logs table.
	ActivityName string `json:"activity_name,omitempty"`
	Category     string `json:"category,omitempty"`
}
