package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoutineSendMark records that a routine reached an appointment. The snapshot
// of start time and offset lets the scanner notice reschedules.
type RoutineSendMark struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	RoutineID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_mark_pair,priority:1;not null"`
	AppointmentID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_mark_pair,priority:2;not null"`
	LogID         uuid.UUID `gorm:"type:uuid;not null"`

	SentAt               time.Time `gorm:"not null"`
	CalculatedSendTime   time.Time `gorm:"not null"`
	AppointmentStartTime time.Time `gorm:"type:timestamp;not null"`
	RoutineHoursBefore   int       `gorm:"not null"`
}

func (m *RoutineSendMark) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&m.ID)
	return
}

// Stale reports whether the appointment or routine moved since the mark was written.
func (m RoutineSendMark) Stale(start time.Time, hoursBefore int) bool {
	return !m.AppointmentStartTime.Equal(start) || m.RoutineHoursBefore != hoursBefore
}
