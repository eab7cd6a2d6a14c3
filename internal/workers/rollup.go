package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/benvon/activity-coach/internal/queue"
	"github.com/benvon/activity-coach/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultRollupPeriodDays is the window a rollup summarizes
	DefaultRollupPeriodDays = 7
	// SweepLookbackDays bounds which users a sweep fans out to: only
	// those with at least one log inside the lookback window.
	SweepLookbackDays = 7
)

// ActiveUserSource lists users eligible for a rollup sweep
type ActiveUserSource interface {
	GetActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// InsightRollup processes insight rollup jobs: per-user weekly summaries
// plus the sweep job that fans them out.
type InsightRollup struct {
	snapshots   ai.SnapshotSource
	generator   *ai.GuidanceGenerator
	profileRepo database.ProfileRepositoryInterface
	insightRepo database.InsightRepositoryInterface
	users       ActiveUserSource
	jobQueue    queue.JobQueue // for re-enqueueing delayed retries
	logger      *zap.Logger
}

// NewInsightRollup creates a new insight rollup worker
func NewInsightRollup(
	snapshots ai.SnapshotSource,
	generator *ai.GuidanceGenerator,
	profileRepo database.ProfileRepositoryInterface,
	insightRepo database.InsightRepositoryInterface,
	users ActiveUserSource,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *InsightRollup {
	return &InsightRollup{
		snapshots:   snapshots,
		generator:   generator,
		profileRepo: profileRepo,
		insightRepo: insightRepo,
		users:       users,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// ProcessRollupJob generates and stores one weekly insight summary
func (w *InsightRollup) ProcessRollupJob(ctx context.Context, job *queue.Job) error {
	if job.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required for insight rollup job")
	}

	periodDays := job.PeriodDays
	if periodDays <= 0 {
		periodDays = DefaultRollupPeriodDays
	}

	snapshot, err := w.snapshots.SnapshotForPeriod(ctx, job.UserID, periodDays)
	if err != nil {
		return fmt.Errorf("failed to aggregate snapshot: %w", err)
	}

	// Same data-volume bar as interactive guidance: a thin week produces
	// no summary rather than a hollow one.
	decision := ai.DecideFromThresholds(snapshot)
	if !decision.AllowReasoning {
		w.logger.Info("rollup_skipped",
			zap.String("user_id", job.UserID.String()),
			zap.String("reason", decision.Reason),
		)
		return nil
	}

	profile, err := w.profileRepo.GetByUserID(ctx, job.UserID)
	if err != nil {
		profile = models.NewPlaceholderProfile(job.UserID)
	}

	insight, err := w.generator.GenerateKeyInsight(ctx, profile, snapshot)
	if err != nil {
		return fmt.Errorf("failed to generate key insight: %w", err)
	}

	now := time.Now().UTC()
	summary := &models.InsightSummary{
		ID:                uuid.New(),
		UserID:            job.UserID,
		PeriodType:        models.PeriodTypeWeekly,
		PeriodStart:       now.AddDate(0, 0, -periodDays),
		PeriodEnd:         now,
		FocusDistribution: snapshot.ActivityDistribution,
		KeyInsight:        insight,
	}
	if err := w.insightRepo.Create(ctx, summary); err != nil {
		return fmt.Errorf("failed to store insight summary: %w", err)
	}

	w.logger.Info("rollup_complete",
		zap.String("user_id", job.UserID.String()),
		zap.Int("period_days", periodDays),
		zap.Int("total_minutes", snapshot.TotalActiveMinutes),
	)
	return nil
}

// ProcessSweepJob fans out one rollup job per recently active user
func (w *InsightRollup) ProcessSweepJob(ctx context.Context, job *queue.Job) error {
	since := time.Now().UTC().AddDate(0, 0, -SweepLookbackDays)
	userIDs, err := w.users.GetActiveUserIDs(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	enqueued := 0
	for _, userID := range userIDs {
		rollup := queue.NewJob(queue.JobTypeInsightRollup, userID)
		rollup.PeriodDays = job.PeriodDays
		if err := w.jobQueue.Enqueue(ctx, rollup); err != nil {
			w.logger.Warn("rollup_enqueue_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	w.logger.Info("rollup_sweep_complete",
		zap.Int("active_users", len(userIDs)),
		zap.Int("enqueued", enqueued),
	)
	return nil
}

// ProcessJob processes a job based on its type
func (w *InsightRollup) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if !job.ShouldProcess() {
		// Not ready yet; hand back to the queue.
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeInsightRollup:
		if err := w.ProcessRollupJob(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeRollupSweep:
		if err := w.ProcessSweepJob(ctx, job); err != nil {
			// Sweeps run on a schedule; a failed one is superseded by
			// the next rather than retried.
			if nackErr := msg.Nack(false); nackErr != nil {
				w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
			}
			return fmt.Errorf("sweep failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack sweep job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries failed rollup jobs. Provider throttling gets a
// delayed re-enqueue sized by the error class; everything else uses
// immediate requeue until retries run out, then the DLQ.
func (w *InsightRollup) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if ai.IsQuotaError(err) || ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && w.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayed := &queue.Job{
				ID:         job.ID,
				Type:       job.Type,
				UserID:     job.UserID,
				PeriodDays: job.PeriodDays,
				NotBefore:  &notBefore,
				NotAfter:   job.NotAfter,
				CreatedAt:  job.CreatedAt,
				RetryCount: job.RetryCount + 1,
				MaxRetries: job.MaxRetries,
			}

			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
			}

			if enqueueErr := w.jobQueue.Enqueue(ctx, delayed); enqueueErr != nil {
				w.logger.Error("job_reenqueue_failed",
					zap.String("job_id", job.ID.String()),
					zap.Error(enqueueErr),
				)
				return fmt.Errorf("throttled, failed to re-enqueue: %w", enqueueErr)
			}

			w.logger.Info("job_delayed",
				zap.String("job_id", job.ID.String()),
				zap.Duration("retry_delay", retryDelay),
				zap.Int("retry_count", job.RetryCount+1),
			)
			return nil
		}

		// Retries exhausted; stop hammering the provider.
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("throttled, retries exhausted (job %s): %w", job.ID, err)
	}

	if job.CanRetry() {
		job.IncrementRetry()
		w.logger.Warn("job_retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	w.logger.Error("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
