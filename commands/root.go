// Package commands is the salonpro-notifier command line.
package commands

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "salonpro-notifier",
	Short: "Appointment reminder engine for SalonPro",
	Long: `salonpro-notifier sends WhatsApp reminders for salon appointments.

Routines decide which appointments get a message and how many hours
before the start time. Every run is recorded in the execution log and
every message in the send history.

Configuration comes from the environment (and .env when present).

Examples:
  salonpro-notifier serve                    # HTTP API plus the reminder scheduler
  salonpro-notifier run                      # run every active routine once
  salonpro-notifier force --routine <id>     # send to all upcoming appointments now
  salonpro-notifier gateway status           # check the WhatsApp session`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(ServeCmd)
	rootCmd.AddCommand(RunCmd)
	rootCmd.AddCommand(ForceCmd)
	rootCmd.AddCommand(ResendCmd)
	rootCmd.AddCommand(MigrateCmd)
	rootCmd.AddCommand(PruneCmd)
	rootCmd.AddCommand(TokenCmd)
	rootCmd.AddCommand(GatewayCmd)
	rootCmd.AddCommand(ConfigCmd)
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
