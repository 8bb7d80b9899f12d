package services

import (
	"context"
	"testing"
	"time"

	"salonpro-notifier/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendLedgerLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()
	ledger := h.svc.Sends()

	ana := h.Customer(t, "Ana", "11999990001", "UTC")
	appt := h.Appointment(t, ana, models.AppointmentConfirmed, now.Add(48*time.Hour))
	tpl := h.Template(t, models.AppointmentConfirmed, "pt_BR", "Oi [FirstName]")

	rec, err := ledger.CreateLogEntry(ctx, SendEntry{
		SalonID:       h.Salon.ID,
		AppointmentID: appt.ID,
		TemplateID:    tpl.ID,
		SendType:      models.SendTypeManual,
		StatusKey:     models.AppointmentConfirmed,
		ToPhone:       ana.Phone,
		Message:       "Oi Ana",
		BodyHash:      "abc",
		Provider:      "fake",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SendPending, rec.Result)

	// PENDING rows count for the hash lookup.
	exists, err := ledger.ExistsByHash(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, ledger.UpdateLogResult(ctx, rec, SendOutcome{
		Result:       models.SendFailure,
		HTTPStatus:   401,
		AttemptCount: 1,
		ErrorCode:    "SEND_ERROR",
		ErrorMessage: "unauthorized",
	}))

	// Failed sends never block a retry.
	exists, err = ledger.ExistsByHash(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, exists)
	dup, err := ledger.IsDuplicateSend(ctx, appt.ID, tpl.ID, models.SendTypeManual, models.AppointmentConfirmed, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, dup)

	recs, err := ledger.ListForAppointment(ctx, appt.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.SendFailure, recs[0].Result)
	assert.Equal(t, 401, recs[0].HTTPStatus)
	assert.Equal(t, "SEND_ERROR", recs[0].ErrorCode)

	err = ledger.UpdateLogResult(ctx, rec, SendOutcome{Result: models.SendPending})
	assert.Error(t, err)
}

func TestIsDuplicateSendHonorsWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()
	ledger := h.svc.Sends()

	ana := h.Customer(t, "Ana", "11999990001", "UTC")
	appt := h.Appointment(t, ana, models.AppointmentConfirmed, now.Add(48*time.Hour))
	tpl := h.Template(t, models.AppointmentConfirmed, "pt_BR", "Oi")

	rec, err := ledger.CreateLogEntry(ctx, SendEntry{
		SalonID: h.Salon.ID, AppointmentID: appt.ID, TemplateID: tpl.ID,
		SendType: models.SendTypeManual, StatusKey: models.AppointmentConfirmed, BodyHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, ledger.UpdateLogResult(ctx, rec, SendOutcome{Result: models.SendSuccess, HTTPStatus: 200, AttemptCount: 1}))

	dup, err := ledger.IsDuplicateSend(ctx, appt.ID, tpl.ID, models.SendTypeManual, models.AppointmentConfirmed, now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = ledger.IsDuplicateSend(ctx, appt.ID, tpl.ID, models.SendTypeManual, models.AppointmentConfirmed, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, dup, "record older than the window")

	dup, err = ledger.IsDuplicateSend(ctx, appt.ID, tpl.ID, models.SendTypeStatusChange, models.AppointmentConfirmed, now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.False(t, dup, "different send type")
}

func TestMarkSentReplacesPreviousMark(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()
	ledger := h.svc.Sends()

	ana := h.Customer(t, "Ana", "11999990001", "UTC")
	appt := h.Appointment(t, ana, models.AppointmentConfirmed, now.Add(24*time.Hour))
	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)

	mark, err := ledger.MarkFor(ctx, routine.ID, appt.ID)
	require.NoError(t, err)
	assert.Nil(t, mark)

	for _, hours := range []int{24, 12} {
		require.NoError(t, ledger.MarkSent(ctx, MarkInput{
			RoutineID:            routine.ID,
			AppointmentID:        appt.ID,
			LogID:                appt.ID,
			CalculatedSendTime:   now,
			AppointmentStartTime: appt.StartDatetime,
			HoursBefore:          hours,
		}))
	}

	var count int64
	require.NoError(t, h.DB.Model(&models.RoutineSendMark{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	mark, err = ledger.MarkFor(ctx, routine.ID, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, mark)
	assert.Equal(t, 12, mark.RoutineHoursBefore)
	assert.False(t, mark.Stale(appt.StartDatetime, 12))
	assert.True(t, mark.Stale(appt.StartDatetime.Add(time.Hour), 12))
}
