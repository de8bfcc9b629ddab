package cmds

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/leaderboard"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
)

var (
	contestID         string
	leaderboardFormat string
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print a contest leaderboard, bypassing the cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := uuid.Parse(contestID)
		if err != nil {
			return fmt.Errorf("bad contest id: %w", err)
		}

		lb, err := leaderboard.NewBuilder(store.NewGormStore(db)).Build(cmd.Context(), id)
		if err != nil {
			return err
		}

		return writeOutput(cmd.OutOrStdout(), leaderboardFormat, lb)
	},
}

func init() {
	leaderboardCmd.Flags().StringVar(&contestID, "contest", "", "Contest id")
	leaderboardCmd.Flags().StringVarP(&leaderboardFormat, "output", "o", formatJSON, "json or yaml")
	requireFlags(leaderboardCmd, "contest")

	rootCmd.AddCommand(leaderboardCmd)
}
