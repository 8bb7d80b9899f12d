package commands

import (
	"context"
	"encoding/json"
	"os"

	"salonpro-notifier/models"
	"salonpro-notifier/services"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	runRoutineID   string
	forceRoutineID string
)

// RunCmd runs routines once with scheduled semantics.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every active routine once, or a single routine with --routine",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if runRoutineID == "" {
			return a.reminders.RunAllActive(cmd.Context())
		}
		return runOne(cmd.Context(), a, runRoutineID, a.reminders.RunRoutine)
	},
}

// ForceCmd sends a routine's reminder to every upcoming appointment it has
// not reached yet, ignoring the scan window.
var ForceCmd = &cobra.Command{
	Use:   "force",
	Short: "Send a routine's reminder to all upcoming appointments now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return runOne(cmd.Context(), a, forceRoutineID, a.reminders.ForceRoutine)
	},
}

func init() {
	RunCmd.Flags().StringVar(&runRoutineID, "routine", "", "Routine ID")
	ForceCmd.Flags().StringVar(&forceRoutineID, "routine", "", "Routine ID")
	_ = ForceCmd.MarkFlagRequired("routine")
}

type routineRun func(ctx context.Context, routine models.Routine) (*services.RunSummary, error)

func runOne(ctx context.Context, a *app, rawID string, run routineRun) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return errors.Wrapf(err, "routine id %q", rawID)
	}
	routine, err := a.reminders.Routine(ctx, id)
	if err != nil {
		return err
	}
	summary, err := run(ctx, routine)
	if summary != nil {
		printJSON(summary)
	}
	return err
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
