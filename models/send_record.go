package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SendPending = "PENDING"
	SendSuccess = "SUCCESS"
	SendFailure = "FAILURE"
)

const (
	SendTypeRoutine      = "routine"
	SendTypeManual       = "manual"
	SendTypeOnCreate     = "on_create"
	SendTypeStatusChange = "status_change"
)

// SendRecord is one delivery attempt. It is written PENDING before the
// gateway is called and moved to SUCCESS or FAILURE afterwards.
type SendRecord struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SalonID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	AppointmentID uuid.UUID  `gorm:"type:uuid;index:idx_send_dup,priority:1;not null" json:"appointmentId"`
	TemplateID    uuid.UUID  `gorm:"type:uuid;index:idx_send_dup,priority:2;not null" json:"templateId"`
	RoutineID     *uuid.UUID `gorm:"type:uuid;index" json:"routineId,omitempty"`
	SendType      string     `gorm:"type:varchar(20);index:idx_send_dup,priority:3;not null" json:"sendType"`
	StatusKey     string     `gorm:"type:varchar(30);index:idx_send_dup,priority:4" json:"statusKey"`

	ToPhone  string `gorm:"type:varchar(32)" json:"toPhone"`
	Message  string `gorm:"type:text" json:"message"`
	BodyHash string `gorm:"type:char(64);index;not null" json:"bodyHash"`
	Provider string `gorm:"type:varchar(20)" json:"provider"`

	Result         string `gorm:"type:varchar(10);index;not null" json:"result"`
	HTTPStatus     int    `json:"httpStatus"`
	AttemptCount   int    `json:"attemptCount"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Response       JSONB  `gorm:"type:jsonb" json:"response,omitempty"`
	ErrorCode      string `gorm:"type:varchar(32)" json:"errorCode,omitempty"`
	ErrorMessage   string `gorm:"type:text" json:"errorMessage,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_send_dup,priority:5" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *SendRecord) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&r.ID)
	return
}
