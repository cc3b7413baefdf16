package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/support-tickets/internal/config"
	"github.com/spec-kit/support-tickets/internal/observability"
	"github.com/spec-kit/support-tickets/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDatabaseConfig()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Logger, cfg.App)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if err := persistence.RunMigrations(cmd.Context(), cfg.Postgres.DSN, logger); err != nil {
				logger.Error("migrations failed", zap.Error(err))
				return err
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDatabaseConfig()
			if err != nil {
				return err
			}
			statuses, err := persistence.MigrationStatus(cmd.Context(), cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, st := range statuses {
				applied := "pending"
				if !st.AppliedAt.IsZero() {
					applied = st.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%-6d %-30s %s\n", st.Source.Version, st.Source.Path, applied)
			}
			return nil
		},
	})
	return cmd
}

func loadDatabaseConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return cfg, nil
}
