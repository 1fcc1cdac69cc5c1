package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/spf13/cobra"
)

const passwordEnv = "DEALERCTL_PASSWORD"

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create [email] [name]",
	Short: "Create a staff account",
	Long:  "Creates a staff account. The password is read from " + passwordEnv + " when --password is not given.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roleFlag, _ := cmd.Flags().GetString("role")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv(passwordEnv)
		}
		if password == "" {
			return fmt.Errorf("no password: use --password or set %s", passwordEnv)
		}

		role := model.UserRole(strings.ToUpper(roleFlag))
		user, err := current.auth.CreateUser(args[0], password, args[1], role)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (ID: %d)\n", user.Role, user.Email, user.ID)
		return nil
	},
}

func init() {
	usersCreateCmd.Flags().String("role", string(model.RoleSalesperson), "ADMIN, MANAGER or SALESPERSON")
	usersCreateCmd.Flags().String("password", "", "initial password")
	usersCmd.AddCommand(usersCreateCmd)
}
