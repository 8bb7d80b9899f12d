package commands

import (
	"time"

	"salonpro-notifier/config"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var pruneDays int

// MigrateCmd creates or updates the notifier tables.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, log, err := loadSettings()
		if err != nil {
			return err
		}
		db, err := config.ConnectDB(settings)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := config.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("database migrated")
		return nil
	},
}

// PruneCmd deletes old execution logs.
var PruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete execution logs older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		days := a.settings.ExecutionRetentionDays
		if cmd.Flags().Changed("days") {
			days = pruneDays
		}
		if days < 1 {
			return errors.Newf("retention must be at least one day, got %d", days)
		}
		cutoff := time.Now().AddDate(0, 0, -days)
		n, err := a.reminders.Executions().Prune(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		a.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("execution logs pruned")
		return nil
	},
}

func init() {
	PruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Retention in days (default EXECUTION_RETENTION_DAYS)")
}
