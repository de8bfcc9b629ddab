package cmds

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

var (
	contestName     string
	contestEnd      string
	contestPosition int
	contestMaxScore float64
)

var contestCmd = &cobra.Command{
	Use:   "contest",
	Short: "Manage contests",
}

var contestCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a contest. Without --end it never closes.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		contest := models.Contest{Name: contestName}
		if contestEnd != "" {
			end, err := time.Parse(time.RFC3339, contestEnd)
			if err != nil {
				return fmt.Errorf("bad end time: %w", err)
			}
			contest.EndTime = models.NewNullFromData(end)
		}

		if err := db.WithContext(cmd.Context()).Create(&contest).Error; err != nil {
			return fmt.Errorf("failed to create contest: %w", err)
		}

		logger.Logger.Info("created contest", "name", contest.Name, "id", contest.ID)
		fmt.Fprintln(cmd.OutOrStdout(), contest.ID.String())
		return nil
	},
}

var contestAddChallengeCmd = &cobra.Command{
	Use:   "add-challenge",
	Short: "Add a challenge to a contest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		contest, err := uuid.Parse(contestID)
		if err != nil {
			return fmt.Errorf("bad contest id: %w", err)
		}
		challenge, err := uuid.Parse(challengeID)
		if err != nil {
			return fmt.Errorf("bad challenge id: %w", err)
		}
		if contestMaxScore < 0 {
			return fmt.Errorf("max score must not be negative")
		}

		cc := models.ContestChallenge{
			ContestID:   contest,
			ChallengeID: challenge,
			Position:    contestPosition,
			MaxScore:    contestMaxScore,
		}
		if err := db.WithContext(cmd.Context()).Create(&cc).Error; err != nil {
			return fmt.Errorf("failed to add challenge: %w", err)
		}

		logger.Logger.Info("added challenge to contest", "contest", contest, "challenge", challenge)
		return nil
	},
}

func init() {
	contestCreateCmd.Flags().StringVar(&contestName, "name", "", "Contest name")
	contestCreateCmd.Flags().StringVar(&contestEnd, "end", "", "End time, RFC 3339")
	requireFlags(contestCreateCmd, "name")

	contestAddChallengeCmd.Flags().StringVar(&contestID, "contest", "", "Contest id")
	contestAddChallengeCmd.Flags().StringVar(&challengeID, "challenge", "", "Challenge id")
	contestAddChallengeCmd.Flags().IntVar(&contestPosition, "position", 0, "Leaderboard column")
	contestAddChallengeCmd.Flags().Float64Var(&contestMaxScore, "max-score", 100, "Score for a full solve")
	requireFlags(contestAddChallengeCmd, "contest", "challenge")

	contestCmd.AddCommand(contestCreateCmd, contestAddChallengeCmd)
	rootCmd.AddCommand(contestCmd)
}
