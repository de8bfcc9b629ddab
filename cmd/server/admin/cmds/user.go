package cmds

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

var (
	username  string
	userToken string
	userAdmin bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user or replace its token",
	Long: "Create a user or replace its token. When --token is not given one is generated and " +
		"printed to stdout.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		token := userToken
		if token == "" {
			token = os.Getenv("MINICMS_USER_TOKEN")
		}
		generated := token == ""
		if generated {
			token = uuid.NewString()
		}

		user, err := models.UpsertUser(cmd.Context(), db, username, token, userAdmin)
		if err != nil {
			return err
		}

		logger.Logger.Info("saved user", "username", user.Username, "id", user.ID, "admin", user.Admin)
		if generated {
			fmt.Fprintln(cmd.OutOrStdout(), token)
		}
		return nil
	},
}

var userDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop a user from authenticating",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := models.SetUserActive(cmd.Context(), db, username, false); err != nil {
			return err
		}
		logger.Logger.Info("disabled user", "username", username)
		return nil
	},
}

var userEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Allow a disabled user to authenticate again",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := models.SetUserActive(cmd.Context(), db, username, true); err != nil {
			return err
		}
		logger.Logger.Info("enabled user", "username", username)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userToken, "token", "", "Token to set, MINICMS_USER_TOKEN is used when empty")
	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "Grant admin permissions")

	for _, cmd := range []*cobra.Command{userCreateCmd, userDisableCmd, userEnableCmd} {
		cmd.Flags().StringVar(&username, "username", "", "Username")
		requireFlags(cmd, "username")
		userCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(userCmd)
}
