package cmds

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/migrations"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Migrate to the latest version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := migrations.Up(cmd.Context(), db); err != nil {
			return err
		}
		logger.Logger.Info("database is up to date")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := migrations.Down(cmd.Context(), db); err != nil {
			return err
		}
		logger.Logger.Info("rolled back all migrations")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		current, latest, err := migrations.Version(cmd.Context(), db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d of %d\n", current, latest)
		if current < latest {
			logger.Logger.Warn("database has pending migrations", "pending", latest-current)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
