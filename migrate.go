package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"flip-lending/repository"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the embedded PostgreSQL migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			dsn := postgresConfig(cfg.Postgres).DSN()
			slog.Info("🗄️  Running database migrations...", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
			if err := repository.RunMigrations(dsn); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			slog.Info("✅ Database migrations completed successfully!")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		RunE: func(_ *cobra.Command, _ []string) error {
			dsn := postgresConfig(cfg.Postgres).DSN()
			slog.Warn("rolling back all migrations", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
			if err := repository.RunMigrationsDown(dsn); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			slog.Info("database rolled back")
			return nil
		},
	})

	return cmd
}
