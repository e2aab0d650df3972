package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/inkwell/internal/agent"
	"github.com/user/inkwell/internal/directory"
	"github.com/user/inkwell/internal/pipeline"
	"github.com/user/inkwell/internal/store"
	"github.com/user/inkwell/internal/types"
)

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("topic", "", "topic to write about (empty picks a default theme)")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one generation and print the stored post",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")

		cfg := loadConfig()
		setupLogging(cfg)

		st, err := store.Open(filepath.Join(cfg.DataDir, "posts.db"))
		if err != nil {
			return fmt.Errorf("open content store: %w", err)
		}
		defer st.Close()

		dir := directory.New(filepath.Join(cfg.DataDir, "agents.json"))
		client := agent.New(
			agent.WithRetryPolicy(&agent.RetryPolicy{
				MaxRetries: cfg.Agent.MaxRetries,
				BaseDelay:  time.Duration(cfg.Agent.BaseDelayMs) * time.Millisecond,
				MaxDelay:   time.Duration(cfg.Agent.MaxDelayMs) * time.Millisecond,
			}),
			agent.WithAttemptTimeout(time.Duration(cfg.Agent.TimeoutSeconds)*time.Second),
		)
		estimator, err := pipeline.NewEstimator(cfg.Prompt.Model)
		if err != nil {
			estimator = nil
		}

		pipe := pipeline.New(dir, client, st, estimator, pipeline.Config{
			AgentID:         types.AgentID(cfg.Agent.Default),
			Topics:          cfg.Scheduler.Topics,
			MaxConcurrent:   int64(cfg.MaxConcurrent),
			MaxPromptTokens: cfg.Prompt.MaxTokens,
		})

		post, err := pipe.Generate(context.Background(), topic)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(post)
	},
}
