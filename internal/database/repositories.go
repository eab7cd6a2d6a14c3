package database

import (
	"context"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
)

// ActivityRepositoryInterface defines catalog lookups used by the
// directive extractor and the CRUD handlers.
type ActivityRepositoryInterface interface {
	GetByName(ctx context.Context, name string) (*models.Activity, error)
	List(ctx context.Context) ([]*models.Activity, error)
}

// ActivityLogRepositoryInterface defines the log store operations the
// analytics engine and pipeline depend on.
type ActivityLogRepositoryInterface interface {
	Create(ctx context.Context, log *models.ActivityLog) error
	GetInRange(ctx context.Context, userID uuid.UUID, from time.Time) ([]*models.ActivityLog, error)
	GetDistinctLogDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
}

// OutcomeRepositoryInterface defines the outcome store operations.
type OutcomeRepositoryInterface interface {
	GetInRange(ctx context.Context, userID uuid.UUID, from time.Time) ([]*models.Outcome, error)
}

// ProfileRepositoryInterface defines profile get/upsert by user.
type ProfileRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

// InsightRepositoryInterface defines the append-only insight memory.
type InsightRepositoryInterface interface {
	Create(ctx context.Context, summary *models.InsightSummary) error
	GetLatest(ctx context.Context, userID uuid.UUID, limit int) ([]*models.InsightSummary, error)
}

// ChatRepositoryInterface defines the append-only conversation log.
// GetRecent returns messages newest-first.
type ChatRepositoryInterface interface {
	Append(ctx context.Context, msg *models.ChatMessage) error
	GetRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ChatMessage, error)
}

// Ensure concrete types implement the interfaces
var (
	_ ActivityRepositoryInterface    = (*ActivityRepository)(nil)
	_ ActivityLogRepositoryInterface = (*ActivityLogRepository)(nil)
	_ OutcomeRepositoryInterface     = (*OutcomeRepository)(nil)
	_ ProfileRepositoryInterface     = (*ProfileRepository)(nil)
	_ InsightRepositoryInterface     = (*InsightRepository)(nil)
	_ ChatRepositoryInterface        = (*ChatRepository)(nil)
)
