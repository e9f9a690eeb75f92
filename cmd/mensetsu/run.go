package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foxseedlab/mensetsu/external/terminal"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newRunCmd() *cobra.Command {
	var (
		interviewID string
		logFile     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interview session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustLoadConfig()
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()
			initLogger(cfg, f)
			slog.Info("startup: configuration loaded", "env", cfg.Env)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runInterview(ctx, cfg, setupDI(cfg), interviewID)
		},
	}
	cmd.Flags().StringVar(&interviewID, "interview", "", "interview id issued by the server")
	cmd.Flags().StringVar(&logFile, "log-file", "mensetsu.log", "file receiving JSON logs while the UI is open")
	_ = cmd.MarkFlagRequired("interview")
	return cmd
}

func runInterview(ctx context.Context, cfg *config.Config, injector do.Injector, interviewID string) error {
	manager, err := do.Invoke[*session.Manager](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve session manager: %w", err)
	}

	view := terminal.NewView()
	ctrl, err := manager.Open(interviewID, view)
	if err != nil {
		return err
	}
	opts := session.OptionsFromConfig(cfg)
	model := terminal.NewModel(ctx, ctrl, interviewID, opts.Budget, opts.Location)

	slog.Info("startup: opening terminal ui", "interview_id", interviewID)
	runErr := terminal.Run(ctx, model, view)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		slog.Error("session shutdown failed", "interview_id", interviewID, "error", err)
	}
	slog.Info("shut down", "interview_id", interviewID)
	return runErr
}
