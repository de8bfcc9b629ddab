package cmds

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/stegosaurus21/minicms-sub001/internal/config"
	"github.com/stegosaurus21/minicms-sub001/internal/database"
)

// set by the root command before any subcommand runs
var db *gorm.DB

var rootCmd = &cobra.Command{
	Use:           "minicms-admin",
	Short:         "Administrative tasks for a minicms deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.GetConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err = database.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		return nil
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func requireFlags(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(fmt.Sprintf("flag %q is not defined on %s", flag, cmd.Name()))
		}
	}
}
