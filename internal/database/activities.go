package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/benvon/activity-coach/internal/models"
)

// ActivityRepository handles activity catalog database operations
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create creates a new catalog entry
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (id, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET category = EXCLUDED.category
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		activity.ID,
		activity.Name,
		activity.Category,
	).Scan(&activity.ID)

	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// GetByName retrieves a catalog entry by exact name. The match is
// case-sensitive; directive resolution depends on that.
func (r *ActivityRepository) GetByName(ctx context.Context, name string) (*models.Activity, error) {
	activity := &models.Activity{}
	query := `
		SELECT id, name, category
		FROM activities
		WHERE name = $1
	`

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&activity.ID,
		&activity.Name,
		&activity.Category,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("activity not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	return activity, nil
}

// List retrieves all catalog entries ordered by name
func (r *ActivityRepository) List(ctx context.Context) ([]*models.Activity, error) {
	query := `
		SELECT id, name, category
		FROM activities
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity := &models.Activity{}
		if err := rows.Scan(&activity.ID, &activity.Name, &activity.Category); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}
