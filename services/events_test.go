package services

import (
	"context"
	"testing"
	"time"

	"salonpro-notifier/models"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	name   string
	err    error
	events []AppointmentEvent
}

func (r *recordingSubscriber) Name() string { return r.name }

func (r *recordingSubscriber) HandleAppointmentEvent(ctx context.Context, ev AppointmentEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestDispatcherFansOutAndCollectsErrors(t *testing.T) {
	failing := &recordingSubscriber{name: "failing", err: errors.New("boom")}
	ok := &recordingSubscriber{name: "ok"}
	subs := []AppointmentSubscriber{failing, ok}
	d := NewAppointmentDispatcher(zerolog.Nop(), subs...)
	subs[1] = nil // the dispatcher keeps its own list

	err := d.Dispatch(context.Background(), AppointmentEvent{Kind: AppointmentCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscriber failing")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)

	err = d.Dispatch(context.Background(), AppointmentEvent{Kind: "deleted"})
	assert.Error(t, err)
	assert.Len(t, ok.events, 1)
}

func TestAppointmentEventTimeChanged(t *testing.T) {
	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	ev := AppointmentEvent{Appointment: models.Appointment{StartDatetime: start}}
	assert.False(t, ev.TimeChanged())

	same := start
	ev.PreviousStart = &same
	assert.False(t, ev.TimeChanged())

	earlier := start.Add(-time.Hour)
	ev.PreviousStart = &earlier
	assert.True(t, ev.TimeChanged())
}

func TestStatusNotifierSendsStatusMessages(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()
	ana := h.Customer(t, "Ana", "11999990001", "UTC")
	appt := h.Appointment(t, ana, models.AppointmentConfirmed, now.Add(48*time.Hour))
	h.Template(t, models.AppointmentConfirmed, "pt_BR", "[FirstName], horário confirmado para [DateTime].")
	d := NewAppointmentDispatcher(zerolog.Nop(), NewStatusNotifier(h.svc, zerolog.Nop()))

	require.NoError(t, d.Dispatch(ctx, AppointmentEvent{Kind: AppointmentCreated, Appointment: appt}))
	require.NoError(t, d.Dispatch(ctx, AppointmentEvent{Kind: AppointmentCreated, Appointment: appt}))
	assert.Len(t, h.sender.Sent(), 1, "the repeat is a duplicate")

	// A status event that did not change the status sends nothing.
	require.NoError(t, d.Dispatch(ctx, AppointmentEvent{Kind: AppointmentStatusChanged, Appointment: appt, PreviousStatus: appt.Status}))
	assert.Len(t, h.sender.Sent(), 1)

	// Rescheduling bypasses the duplicate window.
	h.clock.Advance(time.Minute)
	previous := appt.StartDatetime
	require.NoError(t, h.DB.Model(&appt).Update("start_datetime", previous.Add(2*time.Hour)).Error)
	appt.StartDatetime = previous.Add(2 * time.Hour)
	require.NoError(t, d.Dispatch(ctx, AppointmentEvent{Kind: AppointmentRescheduled, Appointment: appt, PreviousStart: &previous}))

	sent := h.sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Ana, horário confirmado para 03/01/2025 12:00.", sent[1].Message)

	recs := h.sendRecords(t)
	require.Len(t, recs, 2)
	assert.Equal(t, models.SendTypeOnCreate, recs[0].SendType)
	assert.Equal(t, models.SendTypeStatusChange, recs[1].SendType)
}

func TestStatusNotifierIgnoresUnavailabilityBlocks(t *testing.T) {
	sub := NewStatusNotifier(nil, zerolog.Nop())
	err := sub.HandleAppointmentEvent(context.Background(), AppointmentEvent{
		Kind:        AppointmentCreated,
		Appointment: models.Appointment{IsUnavailability: true},
	})
	assert.NoError(t, err)
}
