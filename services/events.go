package services

import (
	"context"
	"time"

	"salonpro-notifier/models"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type AppointmentEventKind string

const (
	AppointmentCreated       AppointmentEventKind = "created"
	AppointmentStatusChanged AppointmentEventKind = "status_changed"
	AppointmentRescheduled   AppointmentEventKind = "rescheduled"
)

func (k AppointmentEventKind) Valid() bool {
	switch k {
	case AppointmentCreated, AppointmentStatusChanged, AppointmentRescheduled:
		return true
	}
	return false
}

// AppointmentEvent reports a write the booking system made. The previous
// values are set when the event changed them.
type AppointmentEvent struct {
	Kind           AppointmentEventKind
	Appointment    models.Appointment
	PreviousStatus string
	PreviousStart  *time.Time
	OccurredAt     time.Time
}

// TimeChanged reports whether the event moved the appointment.
func (e AppointmentEvent) TimeChanged() bool {
	return e.PreviousStart != nil && !e.PreviousStart.Equal(e.Appointment.StartDatetime)
}

type AppointmentSubscriber interface {
	Name() string
	HandleAppointmentEvent(ctx context.Context, ev AppointmentEvent) error
}

// AppointmentDispatcher hands each event to a fixed set of subscribers, in
// order. A failing subscriber does not stop the others.
type AppointmentDispatcher struct {
	subs []AppointmentSubscriber
	log  zerolog.Logger
}

func NewAppointmentDispatcher(log zerolog.Logger, subs ...AppointmentSubscriber) *AppointmentDispatcher {
	fixed := make([]AppointmentSubscriber, len(subs))
	copy(fixed, subs)
	return &AppointmentDispatcher{subs: fixed, log: log.With().Str("component", "events").Logger()}
}

func (d *AppointmentDispatcher) Dispatch(ctx context.Context, ev AppointmentEvent) error {
	if !ev.Kind.Valid() {
		return errors.Newf("unknown appointment event %q", ev.Kind)
	}
	var errs error
	for _, sub := range d.subs {
		if err := sub.HandleAppointmentEvent(ctx, ev); err != nil {
			d.log.Error().Err(err).
				Str("subscriber", sub.Name()).
				Str("event", string(ev.Kind)).
				Str("appointment_id", ev.Appointment.ID.String()).
				Msg("subscriber failed")
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "subscriber %s", sub.Name()))
		}
	}
	return errs
}

// Sender is the part of ReminderService that event subscribers use.
type Sender interface {
	SendOne(ctx context.Context, m ManualSend) (*SendReport, error)
}

// StatusNotifier messages the customer when an appointment is created, its
// status changes or it is moved.
type StatusNotifier struct {
	sender Sender
	log    zerolog.Logger
}

func NewStatusNotifier(sender Sender, log zerolog.Logger) *StatusNotifier {
	return &StatusNotifier{sender: sender, log: log.With().Str("component", "status-notifier").Logger()}
}

func (n *StatusNotifier) Name() string { return "status-notifier" }

func (n *StatusNotifier) HandleAppointmentEvent(ctx context.Context, ev AppointmentEvent) error {
	if ev.Appointment.IsUnavailability {
		return nil
	}
	if ev.Kind == AppointmentStatusChanged && ev.PreviousStatus == ev.Appointment.Status {
		return nil
	}

	sendType := models.SendTypeStatusChange
	if ev.Kind == AppointmentCreated {
		sendType = models.SendTypeOnCreate
	}
	report, err := n.sender.SendOne(ctx, ManualSend{
		AppointmentID: ev.Appointment.ID,
		SendType:      sendType,
		TimeChanged:   ev.TimeChanged(),
	})
	if err != nil {
		return err
	}
	n.log.Info().
		Str("appointment_id", ev.Appointment.ID.String()).
		Str("send_type", sendType).
		Str("outcome", report.Outcome).
		Str("reason", report.Reason).
		Msg("status message handled")
	if report.Outcome == OutcomeFailed {
		return errors.Newf("status message for %s failed: %s", ev.Appointment.ID, report.Error)
	}
	return nil
}
