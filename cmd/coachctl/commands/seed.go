package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/activity-coach/internal/config"
	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML shape the seed command reads
type catalogFile struct {
	Activities []struct {
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
	} `yaml:"activities"`
}

// NewSeedActivitiesCmd creates the seed-activities command
func NewSeedActivitiesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-activities",
		Short: "Seed the activity catalog from a YAML file",
		Long:  "Upserts catalog entries from a YAML file; existing entries are updated by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read catalog file: %w", err)
			}

			var catalog catalogFile
			if err := yaml.Unmarshal(data, &catalog); err != nil {
				return fmt.Errorf("failed to parse catalog file: %w", err)
			}
			if len(catalog.Activities) == 0 {
				return fmt.Errorf("catalog file contains no activities")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			activityRepo := database.NewActivityRepository(db)
			ctx := context.Background()

			for _, entry := range catalog.Activities {
				if entry.Name == "" || entry.Category == "" {
					return fmt.Errorf("catalog entries need both name and category (got name=%q category=%q)", entry.Name, entry.Category)
				}

				activity := &models.Activity{
					ID:       uuid.New(),
					Name:     entry.Name,
					Category: entry.Category,
				}
				if err := activityRepo.Create(ctx, activity); err != nil {
					return fmt.Errorf("failed to seed %q: %w", entry.Name, err)
				}
				fmt.Printf("✓ %s (%s)\n", activity.Name, activity.Category)
			}

			fmt.Printf("\nSeeded %d activities\n", len(catalog.Activities))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the YAML catalog file (required)")

	return cmd
}
