package commands

import (
	"fmt"
	"os"

	"salonpro-notifier/config"

	"github.com/spf13/cobra"
)

// ConfigCmd prints the effective settings with secrets masked.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and any problems with it",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		printJSON(settings.Masked())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	},
}
