package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name  string `gorm:"not null"`
	Phone string `gorm:"not null"`
	Email string
	// IANA zone name, e.g. America/Sao_Paulo. Empty means the application default.
	Timezone string `gorm:"type:varchar(64)"`
	Language string `gorm:"type:varchar(10)"`
	Notes    string
	IsActive bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&c.ID)
	return
}
