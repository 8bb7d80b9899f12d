package commands

import (
	"salonpro-notifier/models"
	"salonpro-notifier/services"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	resendAppointmentID string
	resendTemplateID    string
	resendForce         bool
)

// ResendCmd sends the message for an appointment's current status.
var ResendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Send the current status message for one appointment",
	Long: `Send the current status message for one appointment.

Without --force a message identical to one sent recently is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apptID, err := uuid.Parse(resendAppointmentID)
		if err != nil {
			return errors.Wrapf(err, "appointment id %q", resendAppointmentID)
		}
		req := services.ManualSend{AppointmentID: apptID, SendType: models.SendTypeManual, ForceSend: resendForce}
		if resendTemplateID != "" {
			tplID, err := uuid.Parse(resendTemplateID)
			if err != nil {
				return errors.Wrapf(err, "template id %q", resendTemplateID)
			}
			req.TemplateID = &tplID
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.reminders.SendOne(cmd.Context(), req)
		if err != nil {
			return err
		}
		printJSON(report)
		if report.Outcome == services.OutcomeFailed {
			return errors.Newf("send failed: %s", report.Error)
		}
		return nil
	},
}

func init() {
	ResendCmd.Flags().StringVar(&resendAppointmentID, "appointment", "", "Appointment ID")
	ResendCmd.Flags().StringVar(&resendTemplateID, "template", "", "Template ID (default: the status template)")
	ResendCmd.Flags().BoolVar(&resendForce, "force", false, "Send even if an identical message went out recently")
	_ = ResendCmd.MarkFlagRequired("appointment")
}
