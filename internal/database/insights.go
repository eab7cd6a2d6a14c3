package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
)

// InsightRepository handles insight summary database operations.
// Summaries are append-only; the pipeline never mutates or deletes them.
type InsightRepository struct {
	db *DB
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// Create creates a new insight summary
func (r *InsightRepository) Create(ctx context.Context, summary *models.InsightSummary) error {
	query := `
		INSERT INTO insight_summaries (id, user_id, period_type, period_start, period_end, focus_distribution, key_insight, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING generated_at
	`

	distributionJSON, err := json.Marshal(summary.FocusDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal focus distribution: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		summary.ID,
		summary.UserID,
		summary.PeriodType,
		summary.PeriodStart,
		summary.PeriodEnd,
		distributionJSON,
		summary.KeyInsight,
		time.Now(),
	).Scan(&summary.GeneratedAt)

	if err != nil {
		return fmt.Errorf("failed to create insight summary: %w", err)
	}

	return nil
}

// GetLatest retrieves the user's most recent insight summaries, newest
// first.
func (r *InsightRepository) GetLatest(ctx context.Context, userID uuid.UUID, limit int) ([]*models.InsightSummary, error) {
	query := `
		SELECT id, user_id, period_type, period_start, period_end, focus_distribution, key_insight, generated_at
		FROM insight_summaries
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query insight summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.InsightSummary
	for rows.Next() {
		summary := &models.InsightSummary{}
		var distributionJSON []byte

		err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.PeriodType,
			&summary.PeriodStart,
			&summary.PeriodEnd,
			&distributionJSON,
			&summary.KeyInsight,
			&summary.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight summary: %w", err)
		}

		if len(distributionJSON) > 0 {
			if err := json.Unmarshal(distributionJSON, &summary.FocusDistribution); err != nil {
				return nil, fmt.Errorf("failed to unmarshal focus distribution: %w", err)
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating insight summaries: %w", err)
	}

	return summaries, nil
}
