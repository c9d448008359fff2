package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := logger.ContextWithLogger(cmd.Context(), log)
			if err := store.ApplyMigrations(ctx, cfg.Database.URL); err != nil {
				return err
			}

			db, err := sql.Open("pgx", cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()
			version, err := store.SchemaVersion(ctx, db)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}
