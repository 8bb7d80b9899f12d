package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Routine is an operator-defined reminder policy: send TemplateID to every
// appointment in StatusToMatch, HoursBefore hours before it starts.
type Routine struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SalonID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	Name          string     `gorm:"not null" json:"name"`
	StatusToMatch string     `gorm:"type:varchar(30);not null" json:"statusToMatch"`
	TemplateID    *uuid.UUID `gorm:"type:uuid" json:"templateId"`
	HoursBefore   int        `gorm:"not null" json:"hoursBefore"`
	IsActive      bool       `gorm:"index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Routine) TableName() string { return "reminder_routines" }

func (r *Routine) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&r.ID)
	return
}
