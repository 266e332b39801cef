package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/templui/goalplanner/internal/config"
	"github.com/templui/goalplanner/internal/db"
	"github.com/templui/goalplanner/internal/logger"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQL document store schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), db.RunMigrations)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), db.MigrateDown)
		},
	})

	return cmd
}

func migrate(ctx context.Context, run func(context.Context, *sql.DB, string) error) error {
	cfg := config.Load()
	logger.InitTo(os.Stderr, cfg.IsDevelopment(), cfg.SentryDSN)

	if cfg.StoreBackend != config.StoreSQL {
		return fmt.Errorf("migrations only apply to STORE_BACKEND=sql, got %q", cfg.StoreBackend)
	}

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer db.Close(database)

	return run(ctx, database.DB, cfg.DBDriver)
}
