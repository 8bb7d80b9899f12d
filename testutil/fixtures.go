package testutil

import (
	"testing"
	"time"

	"salonpro-notifier/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Fixture is a salon with one provider and one service, ready for appointments.
type Fixture struct {
	DB       *gorm.DB
	Salon    models.Salon
	Provider models.User
	Service  models.Service
}

func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	salon := models.Salon{Name: "Studio Bela", DefaultLanguage: "pt_BR"}
	require.NoError(t, db.Create(&salon).Error)

	provider := models.User{
		Email:    uuid.NewString() + "@studiobela.test",
		Password: "secret",
		Name:     "Marina",
		Role:     "employee",
		SalonID:  salon.ID,
	}
	require.NoError(t, db.Create(&provider).Error)

	service := models.Service{SalonID: salon.ID, Name: "Corte", Price: 80, Duration: 45}
	require.NoError(t, db.Create(&service).Error)

	return &Fixture{DB: db, Salon: salon, Provider: provider, Service: service}
}

func (f *Fixture) Customer(t *testing.T, name, phone, timezone string) models.Customer {
	t.Helper()
	c := models.Customer{SalonID: f.Salon.ID, Name: name, Phone: phone, Timezone: timezone, Language: "pt_BR"}
	require.NoError(t, f.DB.Create(&c).Error)
	return c
}

// Appointment stores start as a zone-less wall-clock value.
func (f *Fixture) Appointment(t *testing.T, customer models.Customer, status string, start time.Time) models.Appointment {
	t.Helper()
	naive := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
	a := models.Appointment{
		SalonID:       f.Salon.ID,
		CustomerID:    customer.ID,
		ServiceID:     &f.Service.ID,
		ProviderID:    &f.Provider.ID,
		StartDatetime: naive,
		Status:        status,
	}
	require.NoError(t, f.DB.Create(&a).Error)
	return a
}

func (f *Fixture) Template(t *testing.T, statusKey, language, message string) models.ReminderTemplate {
	t.Helper()
	tpl := models.ReminderTemplate{
		SalonID:   f.Salon.ID,
		Name:      statusKey + " " + language,
		StatusKey: statusKey,
		Language:  language,
		Message:   message,
		IsActive:  true,
	}
	require.NoError(t, f.DB.Create(&tpl).Error)
	return tpl
}

func (f *Fixture) Routine(t *testing.T, status string, hoursBefore int, templateID *uuid.UUID) models.Routine {
	t.Helper()
	r := models.Routine{
		SalonID:       f.Salon.ID,
		Name:          "Lembrete " + status,
		StatusToMatch: status,
		TemplateID:    templateID,
		HoursBefore:   hoursBefore,
		IsActive:      true,
	}
	require.NoError(t, f.DB.Create(&r).Error)
	return r
}
