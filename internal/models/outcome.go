package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is a self-reported result (weight, mood, milestone, ...).
type Outcome struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Date              time.Time  `json:"date"`
	Type              string     `json:"type"`
	Value             string     `json:"value"`
	RelatedActivityID *uuid.UUID `json:"related_activity_id,omitempty"`
}

// OutcomeSummary is the compact form of an outcome carried inside an
// ActivitySnapshot.
type OutcomeSummary struct {
	Type  string    `json:"type"`
	Value string    `json:"value"`
	Date  time.Time `json:"date"`
}
