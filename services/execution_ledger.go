package services

import (
	"context"
	"time"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/models"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Skip reasons recorded in execution details.
const (
	SkipNoTemplate = "NO_TEMPLATE"
	SkipDuplicate  = "DUPLICATE"
)

const appointmentTimeLayout = "2006-01-02 15:04:05"

// ExecutionLedger persists one ExecutionLog per routine run.
type ExecutionLedger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewExecutionLedger(db *gorm.DB, now func() time.Time) *ExecutionLedger {
	return &ExecutionLedger{db: db, now: now}
}

// DeriveStatus maps a run's counters to its final status.
func DeriveStatus(successful, failed int, errorMessage string) string {
	switch {
	case errorMessage != "":
		return models.ExecutionFailure
	case failed > 0 && successful > 0:
		return models.ExecutionPartialSuccess
	case failed > 0:
		return models.ExecutionFailure
	default:
		return models.ExecutionSuccess
	}
}

// ExecutionRun is the open log of a run in progress. It has a single writer.
type ExecutionRun struct {
	ledger  *ExecutionLedger
	log     models.ExecutionLog
	started time.Time
}

// RunMeta describes the run being started.
type RunMeta struct {
	Mode         string
	Window       time.Duration
	TemplateID   *uuid.UUID
	TemplateName string
}

// Start opens a PENDING log. With no candidates there is no run and it
// returns nil without writing anything.
func (l *ExecutionLedger) Start(ctx context.Context, routine models.Routine, meta RunMeta, candidates int) (*ExecutionRun, error) {
	if candidates == 0 {
		return nil, nil
	}
	now := l.now()
	entry := models.ExecutionLog{
		RoutineID:              routine.ID,
		SalonID:                routine.SalonID,
		RoutineName:            routine.Name,
		ExecutionStatus:        models.ExecutionPending,
		AppointmentStatus:      routine.StatusToMatch,
		TemplateID:             meta.TemplateID,
		TemplateName:           meta.TemplateName,
		TotalAppointmentsFound: candidates,
		ClientsNotified:        models.NotifiedClients{},
		ExecutionDetails: models.ExecutionDetails{
			Mode:          meta.Mode,
			WindowMinutes: meta.Window.Minutes(),
			SendResults:   []models.SendResultEntry{},
		},
		ExecutionDatetime: now.UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, errors.Wrapf(err, "create execution log for routine %s", routine.ID)
	}
	return &ExecutionRun{ledger: l, log: entry, started: now}, nil
}

// RecordAbortedRun stores a run that failed before dispatching, so the
// failure is visible without leaving a PENDING row behind.
func (l *ExecutionLedger) RecordAbortedRun(ctx context.Context, routine models.Routine, mode string, cause error) (*models.ExecutionLog, error) {
	entry := models.ExecutionLog{
		RoutineID:         routine.ID,
		SalonID:           routine.SalonID,
		RoutineName:       routine.Name,
		ExecutionStatus:   models.ExecutionFailure,
		AppointmentStatus: routine.StatusToMatch,
		TemplateID:        routine.TemplateID,
		ClientsNotified:   models.NotifiedClients{},
		ExecutionDetails:  models.ExecutionDetails{Mode: mode, SendResults: []models.SendResultEntry{}},
		ErrorMessage:      cause.Error(),
		ExecutionDatetime: l.now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, errors.Wrapf(err, "record aborted run for routine %s", routine.ID)
	}
	return &entry, nil
}

// Log returns a copy of the current state.
func (r *ExecutionRun) Log() models.ExecutionLog {
	return r.log
}

// SendInfo is the part of a delivery the run log keeps.
type SendInfo struct {
	LogID      *uuid.UUID
	HTTPStatus int
	Error      string
}

func (r *ExecutionRun) RecordOutcome(ctx context.Context, appt models.Appointment, success bool, info SendInfo) error {
	now := r.ledger.now().UTC()
	next := r.log
	status := models.SendSuccess
	if success {
		next.SuccessfulSends++
	} else {
		next.FailedSends++
		status = models.SendFailure
	}

	next.ClientsNotified = append(append(models.NotifiedClients{}, r.log.ClientsNotified...), models.NotifiedClient{
		CustomerName:        appt.Customer.Name,
		AppointmentID:       appt.ID,
		AppointmentDatetime: appt.StartDatetime.Format(appointmentTimeLayout),
		Status:              status,
		Timestamp:           now,
		Error:               info.Error,
	})
	next.ExecutionDetails.SendResults = append(append([]models.SendResultEntry{}, r.log.ExecutionDetails.SendResults...), models.SendResultEntry{
		AppointmentID: appt.ID,
		Success:       success,
		Timestamp:     now,
		LogID:         info.LogID,
		HTTPStatus:    info.HTTPStatus,
	})
	return r.save(ctx, next)
}

// RecordSkip notes a recipient that got no send. Counters are untouched.
func (r *ExecutionRun) RecordSkip(ctx context.Context, appt models.Appointment, reason string) error {
	next := r.log
	next.ExecutionDetails.Skipped = append(append([]models.SkippedEntry{}, r.log.ExecutionDetails.Skipped...), models.SkippedEntry{
		AppointmentID: appt.ID,
		Reason:        reason,
		Timestamp:     r.ledger.now().UTC(),
	})
	return r.save(ctx, next)
}

// Finish derives the final status and records the elapsed time.
func (r *ExecutionRun) Finish(ctx context.Context, errorMessage string) error {
	next := r.log
	next.ErrorMessage = errorMessage
	next.ExecutionStatus = DeriveStatus(next.SuccessfulSends, next.FailedSends, errorMessage)
	next.ExecutionTimeSeconds = r.ledger.now().Sub(r.started).Seconds()
	return r.save(ctx, next)
}

// save writes the aggregate fields guarded by the row version.
func (r *ExecutionRun) save(ctx context.Context, next models.ExecutionLog) error {
	res := r.ledger.db.WithContext(ctx).Model(&models.ExecutionLog{}).
		Where("id = ? AND version = ?", r.log.ID, r.log.Version).
		Updates(map[string]interface{}{
			"execution_status":       next.ExecutionStatus,
			"successful_sends":       next.SuccessfulSends,
			"failed_sends":           next.FailedSends,
			"clients_notified":       next.ClientsNotified,
			"execution_details":      next.ExecutionDetails,
			"error_message":          next.ErrorMessage,
			"execution_time_seconds": next.ExecutionTimeSeconds,
			"version":                r.log.Version + 1,
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update execution log %s", r.log.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Mark(errors.Newf("execution log %s changed under run", r.log.ID), apperrors.ErrConcurrentUpdate)
	}
	next.Version = r.log.Version + 1
	r.log = next
	return nil
}

func (l *ExecutionLedger) Get(ctx context.Context, id uuid.UUID) (*models.ExecutionLog, error) {
	var entry models.ExecutionLog
	err := l.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(err, "execution log")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load execution log")
	}
	return &entry, nil
}

func (l *ExecutionLedger) ListForRoutine(ctx context.Context, routineID uuid.UUID, limit int) ([]models.ExecutionLog, error) {
	var logs []models.ExecutionLog
	err := l.db.WithContext(ctx).
		Where("routine_id = ?", routineID).
		Order("execution_datetime DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, errors.Wrap(err, "list execution logs")
}

// Prune deletes finalized logs older than cutoff. PENDING rows are kept for
// inspection.
func (l *ExecutionLedger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("execution_datetime < ? AND execution_status <> ?", cutoff.UTC(), models.ExecutionPending).
		Delete(&models.ExecutionLog{})
	return res.RowsAffected, errors.Wrap(res.Error, "prune execution logs")
}
