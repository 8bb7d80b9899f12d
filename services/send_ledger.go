package services

import (
	"context"
	"time"

	"salonpro-notifier/models"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SendLedger persists delivery attempts and routine marks.
type SendLedger struct {
	db  *gorm.DB
	now func() time.Time
}

var _ SendHistory = (*SendLedger)(nil)

func NewSendLedger(db *gorm.DB, now func() time.Time) *SendLedger {
	return &SendLedger{db: db, now: now}
}

type SendEntry struct {
	SalonID       uuid.UUID
	AppointmentID uuid.UUID
	TemplateID    uuid.UUID
	RoutineID     *uuid.UUID
	SendType      string
	StatusKey     string
	ToPhone       string
	Message       string
	BodyHash      string
	Provider      string
}

// CreateLogEntry writes the PENDING row before the gateway is called, so a
// crash mid-send still leaves a trace.
func (l *SendLedger) CreateLogEntry(ctx context.Context, e SendEntry) (*models.SendRecord, error) {
	now := l.now().UTC()
	rec := &models.SendRecord{
		SalonID:       e.SalonID,
		AppointmentID: e.AppointmentID,
		TemplateID:    e.TemplateID,
		RoutineID:     e.RoutineID,
		SendType:      e.SendType,
		StatusKey:     e.StatusKey,
		ToPhone:       e.ToPhone,
		Message:       e.Message,
		BodyHash:      e.BodyHash,
		Provider:      e.Provider,
		Result:        models.SendPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := l.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, errors.Wrap(err, "create send record")
	}
	return rec, nil
}

type SendOutcome struct {
	Result         string
	HTTPStatus     int
	AttemptCount   int
	ResponseTimeMs int64
	Response       models.JSONB
	ErrorCode      string
	ErrorMessage   string
}

// UpdateLogResult moves a PENDING record to SUCCESS or FAILURE.
func (l *SendLedger) UpdateLogResult(ctx context.Context, rec *models.SendRecord, o SendOutcome) error {
	if o.Result != models.SendSuccess && o.Result != models.SendFailure {
		return errors.Newf("send record %s: invalid result %q", rec.ID, o.Result)
	}
	updates := map[string]interface{}{
		"result":           o.Result,
		"http_status":      o.HTTPStatus,
		"attempt_count":    o.AttemptCount,
		"response_time_ms": o.ResponseTimeMs,
		"response":         o.Response,
		"error_code":       o.ErrorCode,
		"error_message":    o.ErrorMessage,
		"updated_at":       l.now().UTC(),
	}
	err := l.db.WithContext(ctx).Model(&models.SendRecord{}).Where("id = ?", rec.ID).Updates(updates).Error
	if err != nil {
		return errors.Wrapf(err, "update send record %s", rec.ID)
	}

	rec.Result = o.Result
	rec.HTTPStatus = o.HTTPStatus
	rec.AttemptCount = o.AttemptCount
	rec.ResponseTimeMs = o.ResponseTimeMs
	rec.Response = o.Response
	rec.ErrorCode = o.ErrorCode
	rec.ErrorMessage = o.ErrorMessage
	return nil
}

// ExistsByHash reports whether the same content was already sent or is in
// flight. Failed attempts do not count, so a failure can be retried.
func (l *SendLedger) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var n int64
	err := l.db.WithContext(ctx).Model(&models.SendRecord{}).
		Where("body_hash = ? AND result <> ?", hash, models.SendFailure).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "lookup send by hash")
	}
	return n > 0, nil
}

func (l *SendLedger) IsDuplicateSend(ctx context.Context, appointmentID, templateID uuid.UUID, sendType, statusKey string, since time.Time) (bool, error) {
	var n int64
	err := l.db.WithContext(ctx).Model(&models.SendRecord{}).
		Where("appointment_id = ? AND template_id = ? AND send_type = ? AND status_key = ?",
			appointmentID, templateID, sendType, statusKey).
		Where("result <> ? AND created_at >= ?", models.SendFailure, since.UTC()).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "lookup recent sends")
	}
	return n > 0, nil
}

type MarkInput struct {
	RoutineID            uuid.UUID
	AppointmentID        uuid.UUID
	LogID                uuid.UUID
	CalculatedSendTime   time.Time
	AppointmentStartTime time.Time
	HoursBefore          int
}

// MarkSent replaces any earlier mark for the pair with a fresh snapshot.
func (l *SendLedger) MarkSent(ctx context.Context, in MarkInput) error {
	mark := models.RoutineSendMark{
		RoutineID:            in.RoutineID,
		AppointmentID:        in.AppointmentID,
		LogID:                in.LogID,
		SentAt:               l.now().UTC(),
		CalculatedSendTime:   in.CalculatedSendTime.UTC(),
		AppointmentStartTime: in.AppointmentStartTime,
		RoutineHoursBefore:   in.HoursBefore,
	}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("routine_id = ? AND appointment_id = ?", in.RoutineID, in.AppointmentID).
			Delete(&models.RoutineSendMark{}).Error; err != nil {
			return err
		}
		return tx.Create(&mark).Error
	})
	return errors.Wrapf(err, "mark appointment %s sent for routine %s", in.AppointmentID, in.RoutineID)
}

func (l *SendLedger) MarkFor(ctx context.Context, routineID, appointmentID uuid.UUID) (*models.RoutineSendMark, error) {
	var mark models.RoutineSendMark
	err := l.db.WithContext(ctx).
		Where("routine_id = ? AND appointment_id = ?", routineID, appointmentID).
		First(&mark).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load routine mark")
	}
	return &mark, nil
}

func (l *SendLedger) ListForAppointment(ctx context.Context, appointmentID uuid.UUID, limit int) ([]models.SendRecord, error) {
	var recs []models.SendRecord
	err := l.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, errors.Wrap(err, "list send records")
}
