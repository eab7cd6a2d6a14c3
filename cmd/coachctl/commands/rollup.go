package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/activity-coach/internal/config"
	"github.com/benvon/activity-coach/internal/queue"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewEnqueueRollupCmd creates the enqueue-rollup command
func NewEnqueueRollupCmd() *cobra.Command {
	var userIDFlag string
	var allActive bool
	var periodDays int

	cmd := &cobra.Command{
		Use:   "enqueue-rollup",
		Short: "Schedule insight rollup jobs",
		Long:  "Enqueues a rollup for one user, or a sweep that fans out to every recently active user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userIDFlag == "" && !allActive {
				return fmt.Errorf("one of --user or --all-active is required")
			}
			if userIDFlag != "" && allActive {
				return fmt.Errorf("--user and --all-active are mutually exclusive")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() {
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close queue: %v\n", err)
				}
			}()

			var job *queue.Job
			if allActive {
				job = queue.NewJob(queue.JobTypeRollupSweep, uuid.Nil)
			} else {
				userID, err := uuid.Parse(userIDFlag)
				if err != nil {
					return fmt.Errorf("invalid --user value: %w", err)
				}
				job = queue.NewJob(queue.JobTypeInsightRollup, userID)
			}
			job.PeriodDays = periodDays

			if err := jobQueue.Enqueue(context.Background(), job); err != nil {
				return fmt.Errorf("failed to enqueue job: %w", err)
			}

			if job.Type == queue.JobTypeRollupSweep {
				fmt.Printf("✓ Enqueued sweep job %s (period: %d days)\n", job.ID, periodDays)
			} else {
				fmt.Printf("✓ Enqueued rollup job %s for user %s (period: %d days)\n", job.ID, job.UserID, periodDays)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userIDFlag, "user", "", "User ID to roll up")
	cmd.Flags().BoolVar(&allActive, "all-active", false, "Sweep every recently active user")
	cmd.Flags().IntVar(&periodDays, "period-days", 7, "Window in days each rollup summarizes")

	return cmd
}
