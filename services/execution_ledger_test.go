package services

import (
	"context"
	"testing"
	"time"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/models"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		successful, failed int
		errMsg             string
		want               string
	}{
		{0, 0, "", models.ExecutionSuccess},
		{3, 0, "", models.ExecutionSuccess},
		{2, 1, "", models.ExecutionPartialSuccess},
		{0, 2, "", models.ExecutionFailure},
		{5, 0, "boom", models.ExecutionFailure},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveStatus(tc.successful, tc.failed, tc.errMsg), "%d/%d/%q", tc.successful, tc.failed, tc.errMsg)
	}
}

func TestExecutionLedgerStartWithoutCandidatesWritesNothing(t *testing.T) {
	h := newHarness(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)

	run, err := h.svc.Executions().Start(context.Background(), routine, RunMeta{Mode: models.ModeScheduled}, 0)
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.Empty(t, h.executionLogs(t))
}

func TestExecutionRunAggregates(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()
	ledger := h.svc.Executions()

	ana := h.Customer(t, "Ana", "11999990001", "UTC")
	bia := h.Customer(t, "Bia", "11999990002", "UTC")
	caio := h.Customer(t, "Caio", "11999990003", "UTC")
	a1 := h.Appointment(t, ana, models.AppointmentConfirmed, now.Add(24*time.Hour))
	a2 := h.Appointment(t, bia, models.AppointmentConfirmed, now.Add(24*time.Hour))
	a3 := h.Appointment(t, caio, models.AppointmentConfirmed, now.Add(24*time.Hour))
	a1.Customer, a2.Customer, a3.Customer = ana, bia, caio
	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)

	run, err := ledger.Start(ctx, routine, RunMeta{Mode: models.ModeScheduled, Window: 5 * time.Minute}, 3)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.ExecutionPending, run.Log().ExecutionStatus)

	require.NoError(t, run.RecordOutcome(ctx, a1, true, SendInfo{HTTPStatus: 200}))
	require.NoError(t, run.RecordOutcome(ctx, a2, false, SendInfo{HTTPStatus: 401, Error: "unauthorized"}))
	require.NoError(t, run.RecordSkip(ctx, a3, SkipNoTemplate))
	h.clock.Advance(1500 * time.Millisecond)
	require.NoError(t, run.Finish(ctx, ""))

	stored, err := ledger.Get(ctx, run.Log().ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionPartialSuccess, stored.ExecutionStatus)
	assert.Equal(t, 3, stored.TotalAppointmentsFound)
	assert.Equal(t, 1, stored.SuccessfulSends)
	assert.Equal(t, 1, stored.FailedSends)
	assert.InDelta(t, 1.5, stored.ExecutionTimeSeconds, 0.001)
	assert.Equal(t, models.ModeScheduled, stored.ExecutionDetails.Mode)
	assert.Equal(t, 5.0, stored.ExecutionDetails.WindowMinutes)

	require.Len(t, stored.ClientsNotified, 2)
	assert.Equal(t, "Ana", stored.ClientsNotified[0].CustomerName)
	assert.Equal(t, models.SendSuccess, stored.ClientsNotified[0].Status)
	assert.Equal(t, "unauthorized", stored.ClientsNotified[1].Error)
	require.Len(t, stored.ExecutionDetails.SendResults, 2)
	assert.Equal(t, 401, stored.ExecutionDetails.SendResults[1].HTTPStatus)
	require.Len(t, stored.ExecutionDetails.Skipped, 1)
	assert.Equal(t, SkipNoTemplate, stored.ExecutionDetails.Skipped[0].Reason)
}

func TestExecutionRunDetectsConcurrentUpdate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()

	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)
	run, err := h.svc.Executions().Start(ctx, routine, RunMeta{Mode: models.ModeScheduled}, 1)
	require.NoError(t, err)

	require.NoError(t, h.DB.Model(&models.ExecutionLog{}).
		Where("id = ?", run.Log().ID).
		Update("version", 7).Error)

	err = run.Finish(ctx, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConcurrentUpdate))
}

func TestRecordAbortedRunIsFailure(t *testing.T) {
	h := newHarness(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)

	entry, err := h.svc.Executions().RecordAbortedRun(context.Background(), routine, models.ModeScheduled, errors.New("db down"))
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionFailure, entry.ExecutionStatus)
	assert.Equal(t, "db down", entry.ErrorMessage)
	assert.Zero(t, entry.SuccessfulSends)
	assert.Zero(t, entry.FailedSends)
}

func TestExecutionLedgerGetMissing(t *testing.T) {
	h := newHarness(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	_, err := h.svc.Executions().Get(context.Background(), h.Salon.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPruneKeepsRecentAndPendingLogs(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()
	ledger := h.svc.Executions()
	routine := h.Routine(t, models.AppointmentConfirmed, 24, nil)

	h.clock.Set(now.AddDate(0, 0, -100))
	_, err := ledger.RecordAbortedRun(ctx, routine, models.ModeScheduled, errors.New("old"))
	require.NoError(t, err)
	_, err = ledger.Start(ctx, routine, RunMeta{Mode: models.ModeScheduled}, 1)
	require.NoError(t, err)
	h.clock.Set(now)
	_, err = ledger.RecordAbortedRun(ctx, routine, models.ModeScheduled, errors.New("new"))
	require.NoError(t, err)

	n, err := ledger.Prune(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	logs, err := ledger.ListForRoutine(ctx, routine.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "new", logs[0].ErrorMessage)
	assert.Equal(t, models.ExecutionPending, logs[1].ExecutionStatus)
}
