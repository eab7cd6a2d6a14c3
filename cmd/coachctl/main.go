package main

import (
	"fmt"
	"os"

	"github.com/benvon/activity-coach/cmd/coachctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "coachctl",
		Short: "Operations tool for the Activity Coach API",
		Long:  "CLI tool for seeding the activity catalog, scheduling insight rollups, and testing the AI provider",
	}

	rootCmd.AddCommand(commands.NewSeedActivitiesCmd())
	rootCmd.AddCommand(commands.NewEnqueueRollupCmd())
	rootCmd.AddCommand(commands.NewTestAICmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
