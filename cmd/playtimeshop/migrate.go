package main

import (
	"fmt"

	"github.com/fadedpez/playtimeshop/internal/config"
	"github.com/fadedpez/playtimeshop/internal/logging"
	ledgerRepo "github.com/fadedpez/playtimeshop/pkg/repositories/ledger"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.SQLitePath
			}

			db, err := ledgerRepo.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := ledgerRepo.Migrate(cmd.Context(), db, logging.NewLogger(cfg.LogLevel))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migrations to %s\n", applied, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (default SQLITE_PATH)")
	return cmd
}
