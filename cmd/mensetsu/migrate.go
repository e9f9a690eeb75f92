package main

import (
	"errors"
	"log/slog"
	"os"

	repositoryimpl "github.com/foxseedlab/mensetsu/external/repository"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the interview archive tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustLoadConfig()
			initLogger(cfg, os.Stdout)
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not configured")
			}

			pool, err := repositoryimpl.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repositoryimpl.RunMigration(cmd.Context(), pool); err != nil {
				return err
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}
