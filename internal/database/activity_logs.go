package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
)

// ActivityLogRepository handles activity log database operations
type ActivityLogRepository struct {
	db *DB
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create creates a new activity log row
func (r *ActivityLogRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, user_id, activity_id, date, duration_minutes, completed, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.ID,
		log.UserID,
		log.ActivityID,
		log.Date,
		log.DurationMinutes,
		log.Completed,
		log.Notes,
		time.Now(),
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}

	return nil
}

// GetInRange retrieves a user's logs with date >= from, joined with the
// catalog so category aggregation does not need a second query.
func (r *ActivityLogRepository) GetInRange(ctx context.Context, userID uuid.UUID, from time.Time) ([]*models.ActivityLog, error) {
	query := `
		SELECT l.id, l.user_id, l.activity_id, l.date, l.duration_minutes, l.completed, l.notes, l.created_at,
		       a.name, a.category
		FROM activity_logs l
		JOIN activities a ON a.id = l.activity_id
		WHERE l.user_id = $1 AND l.date >= $2
		ORDER BY l.date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		log := &models.ActivityLog{}
		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.ActivityID,
			&log.Date,
			&log.DurationMinutes,
			&log.Completed,
			&log.Notes,
			&log.CreatedAt,
			&log.ActivityName,
			&log.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity logs: %w", err)
	}

	return logs, nil
}

// GetDistinctLogDates returns the distinct calendar dates (UTC) on which
// the user logged at least one activity, newest first, across all
// history. The streak computation walks these.
func (r *ActivityLogRepository) GetDistinctLogDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date_trunc('day', date) AS day
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY day DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query log dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan log date: %w", err)
		}
		dates = append(dates, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log dates: %w", err)
	}

	return dates, nil
}

// GetRecent retrieves the user's most recent logs (newest first) for the
// dashboard.
func (r *ActivityLogRepository) GetRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	query := `
		SELECT l.id, l.user_id, l.activity_id, l.date, l.duration_minutes, l.completed, l.notes, l.created_at,
		       a.name, a.category
		FROM activity_logs l
		JOIN activities a ON a.id = l.activity_id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		log := &models.ActivityLog{}
		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.ActivityID,
			&log.Date,
			&log.DurationMinutes,
			&log.Completed,
			&log.Notes,
			&log.CreatedAt,
			&log.ActivityName,
			&log.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent logs: %w", err)
	}

	return logs, nil
}
