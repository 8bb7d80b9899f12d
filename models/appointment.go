package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses used by the booking system.
const (
	AppointmentPending   = "Pending"
	AppointmentConfirmed = "Confirmed"
	AppointmentCanceled  = "Canceled"
	AppointmentCompleted = "Completed"
)

// Appointment is owned by the booking system; the notifier only reads it.
//
// StartDatetime is a wall-clock value in the customer's timezone stored
// without a zone (timestamp without time zone). Drivers hand it back with a
// UTC location; only its clock fields are meaningful.
type Appointment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	SalonID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index;not null"`
	ServiceID  *uuid.UUID `gorm:"type:uuid;index"`
	ProviderID *uuid.UUID `gorm:"type:uuid;index"`

	StartDatetime time.Time  `gorm:"type:timestamp;index;not null"`
	EndDatetime   *time.Time `gorm:"type:timestamp"`
	Status        string     `gorm:"type:varchar(30);index;not null"`
	// Unavailability blocks reserve a provider's time and have no customer to notify.
	IsUnavailability bool `gorm:"default:false"`
	Notes            string

	Customer Customer `gorm:"foreignKey:CustomerID"`
	Service  *Service `gorm:"foreignKey:ServiceID"`
	Provider *User    `gorm:"foreignKey:ProviderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&a.ID)
	return
}
