package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"salonpro-notifier/models"

	"github.com/google/uuid"
)

// BodyHash fingerprints a rendered message for one appointment and template.
func BodyHash(appointmentID, templateID uuid.UUID, sendType, body string) string {
	h := sha256.New()
	h.Write([]byte(appointmentID.String()))
	h.Write([]byte{0})
	h.Write([]byte(templateID.String()))
	h.Write([]byte{0})
	h.Write([]byte(sendType))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

// SendHistory answers the two questions the guard asks of the send ledger.
type SendHistory interface {
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	IsDuplicateSend(ctx context.Context, appointmentID, templateID uuid.UUID, sendType, statusKey string, since time.Time) (bool, error)
}

type DuplicateCheck struct {
	AppointmentID uuid.UUID
	StatusKey     string
	TemplateID    uuid.UUID
	SendType      string
	BodyHash      string
	Window        time.Duration
	// TimeChanged is set when the appointment was rescheduled since the last send.
	TimeChanged bool
}

// IdempotencyGuard rejects sends that repeat one already made.
//
// Routine sends are never checked here; the routine mark is their guard, so
// a reminder still goes out after an on-create message with the same text.
type IdempotencyGuard struct {
	history SendHistory
	now     func() time.Time
}

func NewIdempotencyGuard(history SendHistory, now func() time.Time) *IdempotencyGuard {
	return &IdempotencyGuard{history: history, now: now}
}

func (g *IdempotencyGuard) IsDuplicate(ctx context.Context, c DuplicateCheck) (bool, error) {
	if c.SendType == models.SendTypeRoutine {
		return false, nil
	}
	if c.TimeChanged {
		return false, nil
	}

	exists, err := g.history.ExistsByHash(ctx, c.BodyHash)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	since := g.now().Add(-c.Window)
	return g.history.IsDuplicateSend(ctx, c.AppointmentID, c.TemplateID, c.SendType, c.StatusKey, since)
}
