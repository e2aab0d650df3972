package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/inkwell/internal/agent"
	"github.com/user/inkwell/internal/directory"
	"github.com/user/inkwell/internal/notify"
	"github.com/user/inkwell/internal/pipeline"
	"github.com/user/inkwell/internal/scheduler"
	"github.com/user/inkwell/internal/server"
	"github.com/user/inkwell/internal/store"
	"github.com/user/inkwell/internal/stream"
	"github.com/user/inkwell/internal/types"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inkwell daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "inkwell.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Content store
	st, err := store.Open(filepath.Join(cfg.DataDir, "posts.db"))
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	defer st.Close()

	// Agent directory
	dir := directory.New(filepath.Join(cfg.DataDir, "agents.json"))

	// Invocation client
	client := agent.New(
		agent.WithRetryPolicy(&agent.RetryPolicy{
			MaxRetries: cfg.Agent.MaxRetries,
			BaseDelay:  time.Duration(cfg.Agent.BaseDelayMs) * time.Millisecond,
			MaxDelay:   time.Duration(cfg.Agent.MaxDelayMs) * time.Millisecond,
		}),
		agent.WithAttemptTimeout(time.Duration(cfg.Agent.TimeoutSeconds)*time.Second),
	)

	// Token estimator; generation proceeds without token accounting if the
	// tokenizer can't be loaded.
	estimator, err := pipeline.NewEstimator(cfg.Prompt.Model)
	if err != nil {
		slog.Warn("token estimator unavailable", "error", err)
		estimator = nil
	}

	agentID := types.AgentID(cfg.Agent.Default)
	pipe := pipeline.New(dir, client, st, estimator, pipeline.Config{
		AgentID:         agentID,
		Topics:          cfg.Scheduler.Topics,
		MaxConcurrent:   int64(cfg.MaxConcurrent),
		MaxPromptTokens: cfg.Prompt.MaxTokens,
	})
	proxy := stream.New(dir, client, agentID)

	// Operator notifications
	notifyReg := notify.NewRegistry()
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("create telegram notifier: %w", err)
		}
		notifyReg.Register("telegram:", tg.Send)
		slog.Info("telegram notifier registered")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduler
	notifyTarget := cfg.Scheduler.NotifyTarget
	sched := scheduler.New(cfg.Scheduler.Spec, func() error {
		post, err := pipe.Generate(ctx, "")
		if err != nil {
			if nerr := notifyReg.Notify(notifyTarget, fmt.Sprintf("Scheduled generation failed: %v", err)); nerr != nil {
				slog.Warn("notify failed", "error", nerr)
			}
			return err
		}
		if nerr := notifyReg.Notify(notifyTarget, fmt.Sprintf("Published %q as /%s", post.Title, post.Slug)); nerr != nil {
			slog.Warn("notify failed", "error", nerr)
		}
		return nil
	})
	if cfg.Scheduler.Enabled {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}
	defer sched.Stop()

	slog.Info("inkwell started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"agent", string(agentID),
		"scheduler_armed", sched.IsArmed(),
		"pid_file", pidPath,
	)

	// HTTP surface
	if cfg.HTTP.Enabled {
		srv := server.New(pipe, proxy, sched, st)
		httpServer := &http.Server{
			Addr:    cfg.HTTP.Listen,
			Handler: srv,
		}
		go func() {
			slog.Info("http server started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("http server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	slog.Info("shutting down", "signal", sig)
	return nil
}
