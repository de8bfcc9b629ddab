package cmds

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

var (
	challengeID     string
	challengePath   string
	challengeFormat string
)

type challengeSummary struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Tasks []scoring.Task `json:"tasks"`
	Tests int            `json:"tests"`
}

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Inspect challenges",
}

var challengeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that a challenge can be scored",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := uuid.Parse(challengeID)
		if err != nil {
			return fmt.Errorf("bad challenge id: %w", err)
		}

		challenge, err := checkChallenge(cmd.Context(), store.NewGormStore(db), id)
		if err != nil {
			return err
		}

		return writeOutput(cmd.OutOrStdout(), challengeFormat, challengeSummary{
			ID:    challenge.ID.String(),
			Name:  challenge.Name,
			Tasks: challenge.ScoringTasks(),
			Tests: len(challenge.Tests),
		})
	},
}

// Loads the challenge and runs the same validation submissions go through
func checkChallenge(ctx context.Context, s store.Store, id uuid.UUID) (*models.Challenge, error) {
	challenge, err := s.Challenge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge %s: %w", id, err)
	}

	if err := scoring.Validate(challenge.ScoringTasks()); err != nil {
		return challenge, fmt.Errorf("challenge %q cannot be scored: %w", challenge.Name, err)
	}

	return challenge, nil
}

var challengeImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create a challenge from a yaml definition",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Open(challengePath)
		if err != nil {
			return err
		}
		defer f.Close()

		challenge, err := parseChallenge(f)
		if err != nil {
			return err
		}

		if err := models.CreateChallenge(cmd.Context(), db, challenge); err != nil {
			return err
		}

		logger.Logger.Info("imported challenge", "name", challenge.Name, "id", challenge.ID)
		return writeOutput(cmd.OutOrStdout(), challengeFormat, challengeSummary{
			ID:    challenge.ID.String(),
			Name:  challenge.Name,
			Tasks: challenge.ScoringTasks(),
			Tests: len(challenge.Tests),
		})
	},
}

func init() {
	challengeCheckCmd.Flags().StringVar(&challengeID, "id", "", "Challenge id")
	challengeCheckCmd.Flags().StringVarP(&challengeFormat, "output", "o", formatYAML, "json or yaml")
	requireFlags(challengeCheckCmd, "id")

	challengeImportCmd.Flags().StringVarP(&challengePath, "file", "f", "", "Challenge definition")
	challengeImportCmd.Flags().StringVarP(&challengeFormat, "output", "o", formatYAML, "json or yaml")
	requireFlags(challengeImportCmd, "file")

	challengeCmd.AddCommand(challengeCheckCmd, challengeImportCmd)
	rootCmd.AddCommand(challengeCmd)
}
