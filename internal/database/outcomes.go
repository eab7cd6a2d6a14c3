package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
)

// OutcomeRepository handles outcome database operations
type OutcomeRepository struct {
	db *DB
}

// NewOutcomeRepository creates a new outcome repository
func NewOutcomeRepository(db *DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// Create creates a new outcome
func (r *OutcomeRepository) Create(ctx context.Context, outcome *models.Outcome) error {
	query := `
		INSERT INTO outcomes (id, user_id, date, outcome_type, outcome_value, related_activity_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		outcome.ID,
		outcome.UserID,
		outcome.Date,
		outcome.Type,
		outcome.Value,
		outcome.RelatedActivityID,
	).Scan(&outcome.ID)

	if err != nil {
		return fmt.Errorf("failed to create outcome: %w", err)
	}

	return nil
}

// GetInRange retrieves a user's outcomes with date >= from, oldest first.
func (r *OutcomeRepository) GetInRange(ctx context.Context, userID uuid.UUID, from time.Time) ([]*models.Outcome, error) {
	query := `
		SELECT id, user_id, date, outcome_type, outcome_value, related_activity_id
		FROM outcomes
		WHERE user_id = $1 AND date >= $2
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*models.Outcome
	for rows.Next() {
		outcome := &models.Outcome{}
		err := rows.Scan(
			&outcome.ID,
			&outcome.UserID,
			&outcome.Date,
			&outcome.Type,
			&outcome.Value,
			&outcome.RelatedActivityID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcomes: %w", err)
	}

	return outcomes, nil
}

// GetRecent retrieves the user's most recent outcomes (newest first).
func (r *OutcomeRepository) GetRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Outcome, error) {
	query := `
		SELECT id, user_id, date, outcome_type, outcome_value, related_activity_id
		FROM outcomes
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*models.Outcome
	for rows.Next() {
		outcome := &models.Outcome{}
		err := rows.Scan(
			&outcome.ID,
			&outcome.UserID,
			&outcome.Date,
			&outcome.Type,
			&outcome.Value,
			&outcome.RelatedActivityID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent outcomes: %w", err)
	}

	return outcomes, nil
}
