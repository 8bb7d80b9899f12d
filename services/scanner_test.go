package services

import (
	"context"
	"testing"
	"time"

	"salonpro-notifier/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDueAcrossTimezones(t *testing.T) {
	window := 5 * time.Minute
	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC) // wall clock, no zone

	for _, zone := range []string{"America/Sao_Paulo", "Asia/Tokyo", "Pacific/Kiritimati", "Pacific/Pago_Pago", "UTC"} {
		t.Run(zone, func(t *testing.T) {
			loc, err := time.LoadLocation(zone)
			require.NoError(t, err)
			sendAt := time.Date(2025, 1, 1, 10, 0, 0, 0, loc)

			due, sendTime := IsDue(start, 24, sendAt, window, loc)
			assert.True(t, due, "now equal to send time is due")
			assert.True(t, sendTime.Equal(sendAt))

			due, _ = IsDue(start, 24, sendAt.Add(-window), window, loc)
			assert.True(t, due, "send time at now+window is due")

			due, _ = IsDue(start, 24, sendAt.Add(-window-time.Second), window, loc)
			assert.False(t, due, "send time past the window")

			due, _ = IsDue(start, 24, sendAt.Add(time.Second), window, loc)
			assert.False(t, due, "send time already passed")
		})
	}
}

func TestIsDueUsesRecipientZoneNotServerZone(t *testing.T) {
	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 10:00 on Jan 1st in UTC is 19:00 in Tokyo; the Tokyo send time was at 01:00 UTC.
	due, _ := IsDue(start, 24, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), 5*time.Minute, tokyo)
	assert.False(t, due)
	due, _ = IsDue(start, 24, time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC), 5*time.Minute, tokyo)
	assert.True(t, due)
}

func TestFindDueSelectsOnlyMatchingAppointments(t *testing.T) {
	loc := saoPaulo(t)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, loc)
	h := newHarness(t, now)
	ctx := context.Background()

	ana := h.Customer(t, "Ana Souza", "11999990001", "America/Sao_Paulo")
	due := h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 2, 10, 2, 0, 0, time.UTC))
	h.Appointment(t, ana, models.AppointmentPending, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 2, 10, 6, 0, 0, time.UTC))
	block := h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 2, 10, 1, 0, 0, time.UTC))
	require.NoError(t, h.DB.Model(&block).Update("is_unavailability", true).Error)

	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)
	scanner := NewDueScanner(h.DB, "UTC", h.clock.Now)

	got, err := scanner.FindDue(ctx, routine, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].Appointment.ID)
	assert.Equal(t, "Ana Souza", got[0].Appointment.Customer.Name)
	assert.False(t, got[0].Readmitted)
	assert.True(t, got[0].SendTime.Equal(time.Date(2025, 1, 1, 10, 2, 0, 0, loc)))
}

func TestFindDueFallsBackToDefaultTimezone(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	bia := h.Customer(t, "Bia", "11999990002", "")
	appt := h.Appointment(t, bia, models.AppointmentConfirmed, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	routine := h.Routine(t, models.AppointmentConfirmed, 2, nil)

	got, err := NewDueScanner(h.DB, "UTC", h.clock.Now).FindDue(context.Background(), routine, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, appt.ID, got[0].Appointment.ID)
	assert.Equal(t, time.UTC, got[0].Location)
}

func TestFindDueReadmitsRescheduledAppointment(t *testing.T) {
	loc := saoPaulo(t)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, loc)
	h := newHarness(t, now)
	ctx := context.Background()

	ana := h.Customer(t, "Ana", "11999990001", "America/Sao_Paulo")
	appt := h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)
	scanner := NewDueScanner(h.DB, "UTC", h.clock.Now)

	// Marked for an earlier start time: the mark is stale.
	require.NoError(t, h.svc.Sends().MarkSent(ctx, MarkInput{
		RoutineID:            routine.ID,
		AppointmentID:        appt.ID,
		LogID:                appt.ID,
		CalculatedSendTime:   now.Add(-48 * time.Hour),
		AppointmentStartTime: time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC),
		HoursBefore:          24,
	}))

	got, err := scanner.FindDue(ctx, routine, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Readmitted)

	// A mark for the current start and offset hides it.
	require.NoError(t, h.svc.Sends().MarkSent(ctx, MarkInput{
		RoutineID:            routine.ID,
		AppointmentID:        appt.ID,
		LogID:                appt.ID,
		CalculatedSendTime:   now,
		AppointmentStartTime: appt.StartDatetime,
		HoursBefore:          24,
	}))
	got, err = scanner.FindDue(ctx, routine, 5*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindDueReadmitsWhenRoutineOffsetChanges(t *testing.T) {
	loc := saoPaulo(t)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, loc)
	h := newHarness(t, now)
	ctx := context.Background()

	ana := h.Customer(t, "Ana", "11999990001", "America/Sao_Paulo")
	appt := h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	routine := h.Routine(t, models.AppointmentConfirmed, 2, nil)
	require.NoError(t, h.svc.Sends().MarkSent(ctx, MarkInput{
		RoutineID:            routine.ID,
		AppointmentID:        appt.ID,
		LogID:                appt.ID,
		CalculatedSendTime:   now.Add(-22 * time.Hour),
		AppointmentStartTime: appt.StartDatetime,
		HoursBefore:          24,
	}))

	got, err := NewDueScanner(h.DB, "UTC", h.clock.Now).FindDue(ctx, routine, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Readmitted)
}

func TestFindForceOrdersFutureUnmarkedAppointments(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()

	ana := h.Customer(t, "Ana", "11999990001", "UTC")
	later := h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	sooner := h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC))
	marked := h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC))
	h.Appointment(t, ana, models.AppointmentConfirmed, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)) // already started
	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)

	require.NoError(t, h.svc.Sends().MarkSent(ctx, MarkInput{
		RoutineID:            routine.ID,
		AppointmentID:        marked.ID,
		LogID:                marked.ID,
		CalculatedSendTime:   now,
		AppointmentStartTime: marked.StartDatetime,
		HoursBefore:          24,
	}))

	got, err := NewDueScanner(h.DB, "UTC", h.clock.Now).FindForce(ctx, routine)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].Appointment.ID)
	assert.Equal(t, later.ID, got[1].Appointment.ID)
}
