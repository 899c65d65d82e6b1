package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mycase/internal/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	cmd.AddCommand(newMigrateDirectionCmd(db.MigrateUp, "Apply all pending migrations"))
	cmd.AddCommand(newMigrateDirectionCmd(db.MigrateDown, "Roll back the last migration"))
	return cmd
}

func newMigrateDirectionCmd(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, log, err := loadRuntime(configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			sqlDB, err := db.Open(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close(sqlDB, log)

			if err := db.Migrate(sqlDB.DB, direction, log); err != nil {
				return fmt.Errorf("migrate %s: %w", direction, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", direction)
			return nil
		},
	}
}
