package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPrimaryGoal is the placeholder goal set at registration before
// the user has picked one.
const DefaultPrimaryGoal = "Not set yet"

// Profile holds a user's stated goals and focus areas. One per user,
// created with placeholder values at registration. Mutated either by an
// explicit update or by an UPDATE_PROFILE directive extracted from
// generated coaching text.
type Profile struct {
	UserID         uuid.UUID `json:"user_id"`
	PrimaryGoal    string    `json:"primary_goal"`
	SecondaryGoals []string  `json:"secondary_goals,omitempty"`
	FocusAreas     []string  `json:"focus_areas,omitempty"`
	PriorityOrder  []string  `json:"priority_order,omitempty"`
	TimeHorizon    string    `json:"time_horizon,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPlaceholderProfile returns the profile created at registration.
func NewPlaceholderProfile(userID uuid.UUID) *Profile {
	return &Profile{
		UserID:      userID,
		PrimaryGoal: DefaultPrimaryGoal,
	}
}
