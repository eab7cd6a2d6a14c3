package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
)

// ProfileRepository handles profile database operations
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves a user's profile
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile := &models.Profile{}
	var secondaryJSON, focusJSON, priorityJSON []byte
	var timeHorizon sql.NullString

	query := `
		SELECT user_id, primary_goal, secondary_goals, focus_areas, priority_order, time_horizon, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.PrimaryGoal,
		&secondaryJSON,
		&focusJSON,
		&priorityJSON,
		&timeHorizon,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := unmarshalStringSlice(secondaryJSON, &profile.SecondaryGoals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secondary goals: %w", err)
	}
	if err := unmarshalStringSlice(focusJSON, &profile.FocusAreas); err != nil {
		return nil, fmt.Errorf("failed to unmarshal focus areas: %w", err)
	}
	if err := unmarshalStringSlice(priorityJSON, &profile.PriorityOrder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal priority order: %w", err)
	}
	if timeHorizon.Valid {
		profile.TimeHorizon = timeHorizon.String
	}

	return profile, nil
}

// Upsert creates or replaces a user's profile
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, primary_goal, secondary_goals, focus_areas, priority_order, time_horizon, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			primary_goal = EXCLUDED.primary_goal,
			secondary_goals = EXCLUDED.secondary_goals,
			focus_areas = EXCLUDED.focus_areas,
			priority_order = EXCLUDED.priority_order,
			time_horizon = EXCLUDED.time_horizon,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	secondaryJSON, err := json.Marshal(profile.SecondaryGoals)
	if err != nil {
		return fmt.Errorf("failed to marshal secondary goals: %w", err)
	}
	focusJSON, err := json.Marshal(profile.FocusAreas)
	if err != nil {
		return fmt.Errorf("failed to marshal focus areas: %w", err)
	}
	priorityJSON, err := json.Marshal(profile.PriorityOrder)
	if err != nil {
		return fmt.Errorf("failed to marshal priority order: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.PrimaryGoal,
		secondaryJSON,
		focusJSON,
		priorityJSON,
		profile.TimeHorizon,
		time.Now(),
	).Scan(&profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// unmarshalStringSlice decodes a JSON array column, treating NULL as empty.
func unmarshalStringSlice(data []byte, dest *[]string) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
