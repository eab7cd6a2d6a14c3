package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/config"
	"github.com/benvon/activity-coach/internal/services/ai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewTestAICmd creates the test-ai command
func NewTestAICmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "test-ai",
		Short: "Test the completion provider configuration",
		Long:  "Sends one completion request using the configured provider and prints the response",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.OpenAIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is not configured")
			}

			provider := ai.NewOpenAIProviderWithLogger(
				cfg.OpenAIKey,
				cfg.AIBaseURL,
				cfg.AIModel,
				zap.NewNop(),
				false,
			)

			fmt.Printf("Provider: %s\n", cfg.AIProvider)
			if cfg.AIModel != "" {
				fmt.Printf("Model: %s\n", cfg.AIModel)
			}
			fmt.Printf("Prompt: %s\n\n", prompt)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			start := time.Now()
			response, err := provider.Complete(ctx, ai.CompletionRequest{
				Operation: "test",
				Messages:  []ai.ChatMessage{{Role: "user", Content: prompt}},
				MaxTokens: 100,
			})
			if err != nil {
				return fmt.Errorf("completion request failed: %w", err)
			}

			fmt.Printf("Response (%.1fs): %s\n", time.Since(start).Seconds(), response)
			fmt.Println("\n✓ Provider test passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "Reply with the single word: ready", "Prompt to send")

	return cmd
}
