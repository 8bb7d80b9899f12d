package commands

import (
	"fmt"

	"salonpro-notifier/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	tokenUserID  string
	tokenSalonID string
	tokenSecret  bool
)

// TokenCmd mints operator tokens for scripts and the booking system.
var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an operator API token",
	Long: `Sign an operator API token for --user scoped to --salon.

With --new-secret it prints a fresh random JWT_SECRET instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSecret {
			secret, err := utils.GenerateJWTSecret()
			if err != nil {
				return err
			}
			fmt.Println(secret)
			return nil
		}

		if _, err := uuid.Parse(tokenUserID); err != nil {
			return errors.Wrap(err, "--user must be a UUID")
		}
		if _, err := uuid.Parse(tokenSalonID); err != nil {
			return errors.Wrap(err, "--salon must be a UUID")
		}
		settings, _, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.RequireJWT(); err != nil {
			return err
		}
		token, err := utils.GenerateToken(settings.JWTSecret, tokenUserID, tokenSalonID, settings.JWTExpiry)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	TokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User ID (token subject)")
	TokenCmd.Flags().StringVar(&tokenSalonID, "salon", "", "Salon ID the token is scoped to")
	TokenCmd.Flags().BoolVar(&tokenSecret, "new-secret", false, "Print a new random JWT secret and exit")
}
