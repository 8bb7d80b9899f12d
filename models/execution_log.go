package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ExecutionPending        = "PENDING"
	ExecutionSuccess        = "SUCCESS"
	ExecutionPartialSuccess = "PARTIAL_SUCCESS"
	ExecutionFailure        = "FAILURE"
)

const (
	ModeScheduled = "scheduled"
	ModeForce     = "force"
)

// ExecutionLog is one run of a routine.
type ExecutionLog struct {
	ID                     uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	RoutineID              uuid.UUID        `gorm:"type:uuid;index;not null" json:"routineId"`
	SalonID                uuid.UUID        `gorm:"type:uuid;index" json:"salonId"`
	RoutineName            string           `json:"routineName"`
	ExecutionStatus        string           `gorm:"type:varchar(20);index;not null" json:"executionStatus"`
	AppointmentStatus      string           `gorm:"type:varchar(30)" json:"appointmentStatus"`
	TemplateID             *uuid.UUID       `gorm:"type:uuid" json:"templateId,omitempty"`
	TemplateName           string           `json:"templateName"`
	TotalAppointmentsFound int              `json:"totalAppointmentsFound"`
	SuccessfulSends        int              `json:"successfulSends"`
	FailedSends            int              `json:"failedSends"`
	ClientsNotified        NotifiedClients  `gorm:"type:jsonb" json:"clientsNotified"`
	ExecutionDetails       ExecutionDetails `gorm:"type:jsonb" json:"executionDetails"`
	ErrorMessage           string           `gorm:"type:text" json:"errorMessage,omitempty"`
	ExecutionTimeSeconds   float64          `json:"executionTimeSeconds"`
	ExecutionDatetime      time.Time        `gorm:"index" json:"executionDatetime"`
	Version                int              `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e *ExecutionLog) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&e.ID)
	return
}

type NotifiedClient struct {
	CustomerName        string    `json:"customer_name"`
	AppointmentID       uuid.UUID `json:"appointment_id"`
	AppointmentDatetime string    `json:"appointment_datetime"`
	Status              string    `json:"status"`
	Timestamp           time.Time `json:"timestamp"`
	Error               string    `json:"error,omitempty"`
}

type NotifiedClients []NotifiedClient

func (n NotifiedClients) Value() (driver.Value, error) {
	if n == nil {
		return "[]", nil
	}
	return valueJSON(n)
}

func (n *NotifiedClients) Scan(value interface{}) error {
	return scanJSON(value, n)
}

type SendResultEntry struct {
	AppointmentID uuid.UUID  `json:"appointment_id"`
	Success       bool       `json:"success"`
	Timestamp     time.Time  `json:"timestamp"`
	LogID         *uuid.UUID `json:"log_id,omitempty"`
	HTTPStatus    int        `json:"http_status,omitempty"`
}

type SkippedEntry struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

type ExecutionDetails struct {
	Mode          string            `json:"mode"`
	WindowMinutes float64           `json:"window_minutes,omitempty"`
	SendResults   []SendResultEntry `json:"send_results"`
	Skipped       []SkippedEntry    `json:"skipped,omitempty"`
}

func (d ExecutionDetails) Value() (driver.Value, error) {
	if d.SendResults == nil {
		d.SendResults = []SendResultEntry{}
	}
	return valueJSON(d)
}

func (d *ExecutionDetails) Scan(value interface{}) error {
	return scanJSON(value, d)
}
