package services

import (
	"context"
	"fmt"
	"strings"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/models"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type dateLayouts struct {
	date string
	time string
}

var layoutsByLanguage = map[string]dateLayouts{
	"pt": {"02/01/2006", "15:04"},
	"es": {"02/01/2006", "15:04"},
	"en": {"01/02/2006", "3:04 PM"},
}

func layoutsFor(language string) dateLayouts {
	base := strings.ToLower(language)
	if i := strings.IndexAny(base, "_-"); i > 0 {
		base = base[:i]
	}
	if l, ok := layoutsByLanguage[base]; ok {
		return l
	}
	return layoutsByLanguage["en"]
}

// TemplateRenderer picks the template for a recipient and fills it in.
type TemplateRenderer struct {
	db              *gorm.DB
	defaultLanguage string
}

func NewTemplateRenderer(db *gorm.DB, defaultLanguage string) *TemplateRenderer {
	return &TemplateRenderer{db: db, defaultLanguage: defaultLanguage}
}

// Language is the customer's language, then the salon's, then the default.
func (r *TemplateRenderer) Language(ctx context.Context, appt models.Appointment) string {
	if appt.Customer.Language != "" {
		return appt.Customer.Language
	}
	if salon, err := r.salon(ctx, appt.SalonID); err == nil && salon.DefaultLanguage != "" {
		return salon.DefaultLanguage
	}
	return r.defaultLanguage
}

// Resolve returns the active template for statusKey. An explicit templateID
// must name an active template of the salon; otherwise the status template in
// the closest language wins. No match is ErrNoTemplate.
func (r *TemplateRenderer) Resolve(ctx context.Context, salonID uuid.UUID, statusKey string, templateID *uuid.UUID, language string) (*models.ReminderTemplate, error) {
	if templateID != nil {
		var tpl models.ReminderTemplate
		err := r.db.WithContext(ctx).
			Where("id = ? AND salon_id = ? AND is_active = ?", *templateID, salonID, true).
			First(&tpl).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Mark(errors.Newf("template %s is missing or disabled", *templateID), apperrors.ErrNoTemplate)
		}
		if err != nil {
			return nil, errors.Wrap(err, "load template")
		}
		return &tpl, nil
	}

	var tpls []models.ReminderTemplate
	err := r.db.WithContext(ctx).
		Where("salon_id = ? AND status_key = ? AND is_active = ?", salonID, statusKey, true).
		Order("created_at ASC").
		Find(&tpls).Error
	if err != nil {
		return nil, errors.Wrap(err, "load templates")
	}
	if len(tpls) == 0 {
		return nil, errors.Mark(errors.Newf("no active template for status %q", statusKey), apperrors.ErrNoTemplate)
	}

	for _, want := range []string{language, r.defaultLanguage} {
		for i := range tpls {
			if want != "" && strings.EqualFold(tpls[i].Language, want) {
				return &tpls[i], nil
			}
		}
	}
	return &tpls[0], nil
}

// Render fills tpl for appt. appt must have Customer, Service and Provider loaded.
func (r *TemplateRenderer) Render(ctx context.Context, tpl models.ReminderTemplate, appt models.Appointment, language string) string {
	salonName := ""
	if salon, err := r.salon(ctx, appt.SalonID); err == nil {
		salonName = salon.Name
	}
	return RenderMessage(tpl, appt, appt.Customer, appt.Service, appt.Provider, salonName, language)
}

// RenderMessage replaces the bracket placeholders. Unknown placeholders are
// left as written.
func RenderMessage(tpl models.ReminderTemplate, appt models.Appointment, customer models.Customer, service *models.Service, provider *models.User, salonName, language string) string {
	layouts := layoutsFor(language)
	start := appt.StartDatetime

	firstName := customer.Name
	if fields := strings.Fields(customer.Name); len(fields) > 0 {
		firstName = fields[0]
	}

	pairs := []string{
		"[CustomerName]", customer.Name,
		"[FirstName]", firstName,
		"[SalonName]", salonName,
		"[Date]", start.Format(layouts.date),
		"[Time]", start.Format(layouts.time),
		"[DateTime]", start.Format(layouts.date + " " + layouts.time),
		"[Status]", appt.Status,
	}
	if service != nil {
		pairs = append(pairs,
			"[ServiceName]", service.Name,
			"[Duration]", fmt.Sprintf("%d min", service.Duration),
			"[Price]", fmt.Sprintf("%.2f", service.Price),
		)
	}
	if provider != nil {
		pairs = append(pairs, "[ProviderName]", provider.Name)
	}
	return strings.NewReplacer(pairs...).Replace(tpl.Message)
}

func (r *TemplateRenderer) salon(ctx context.Context, id uuid.UUID) (models.Salon, error) {
	var s models.Salon
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return s, errors.Wrap(err, "load salon")
}
