package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderTemplate is the message body for one appointment status in one language.
type ReminderTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID   uuid.UUID `gorm:"type:uuid;index;not null" json:"salonId"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	StatusKey string    `gorm:"type:varchar(30);index;not null" json:"statusKey"`
	Language  string    `gorm:"type:varchar(10)" json:"language"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsActive  bool      `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&t.ID)
	return
}
