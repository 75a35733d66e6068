package main

import (
	"context"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run the embedded schema migrations.

Subcommands:
  up      - apply pending migrations
  down    - revert the last migration
  status  - show migration status`,
}

func migrateDirection(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			db, log, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx, direction); err != nil {
				return err
			}
			log.Info("migrations finished", "direction", direction)
			return nil
		},
	}
}

func init() {
	migrateCmd.AddCommand(
		migrateDirection("up", "Apply pending migrations"),
		migrateDirection("down", "Revert the last migration"),
		migrateDirection("status", "Show migration status"),
	)
	rootCmd.AddCommand(migrateCmd)
}
