package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	audioimpl "github.com/foxseedlab/mensetsu/external/audio"
	backendimpl "github.com/foxseedlab/mensetsu/external/backend"
	configloader "github.com/foxseedlab/mensetsu/external/config"
	mediaimpl "github.com/foxseedlab/mensetsu/external/media"
	recorderimpl "github.com/foxseedlab/mensetsu/external/recorder"
	repositoryimpl "github.com/foxseedlab/mensetsu/external/repository"
	transcriberimpl "github.com/foxseedlab/mensetsu/external/transcriber"
	voiceimpl "github.com/foxseedlab/mensetsu/external/voice"
	webhookimpl "github.com/foxseedlab/mensetsu/external/webhook"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mensetsu",
		Short:         "Run AI mock interviews from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config, w io.Writer) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	audioimpl.RegisterDI(injector)
	mediaimpl.RegisterDI(injector)
	recorderimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	voiceimpl.RegisterDI(injector)
	backendimpl.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}
