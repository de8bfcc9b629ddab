package cmds

import (
	"github.com/spf13/cobra"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

var (
	languageID      int
	languageName    string
	languageEnabled bool
)

var languageCmd = &cobra.Command{
	Use:   "language",
	Short: "Manage submission languages",
}

var languageSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a language. The id must match the judge's language id.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lang := &models.Language{ID: languageID, Name: languageName, Enabled: languageEnabled}
		if err := models.UpsertLanguage(cmd.Context(), db, lang); err != nil {
			return err
		}
		logger.Logger.Info("saved language", "id", lang.ID, "name", lang.Name, "enabled", lang.Enabled)
		return nil
	},
}

func init() {
	languageSetCmd.Flags().IntVar(&languageID, "id", 0, "Judge language id")
	languageSetCmd.Flags().StringVar(&languageName, "name", "", "Display name")
	languageSetCmd.Flags().BoolVar(&languageEnabled, "enabled", true, "Accept submissions in this language")
	requireFlags(languageSetCmd, "id", "name")

	languageCmd.AddCommand(languageSetCmd)
	rootCmd.AddCommand(languageCmd)
}
