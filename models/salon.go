package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Salon struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	Name            string    `gorm:"not null"`
	Address         string
	Phone           string
	WorkingHours    JSONB  `gorm:"type:jsonb"`
	DefaultLanguage string `gorm:"type:varchar(10)"`

	WhatsAppNotifications bool `gorm:"default:false"`
	SMSNotifications      bool `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Salon) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&s.ID)
	return
}
