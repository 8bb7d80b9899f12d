// controllers/reminder.go
package controllers

import (
	"errors"
	"net/http"

	"salonpro-notifier/models"
	"salonpro-notifier/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateReminderTemplateInput defines the expected JSON structure
type CreateReminderTemplateInput struct {
	Name      string `json:"name"`
	StatusKey string `json:"statusKey" binding:"required,oneof=Pending Confirmed Canceled Completed"`
	Language  string `json:"language" binding:"omitempty,max=10"`
	Message   string `json:"message" binding:"required"`
}

// UpdateReminderTemplateInput defines the expected JSON structure
type UpdateReminderTemplateInput struct {
	Name      *string `json:"name"`
	StatusKey *string `json:"statusKey" binding:"omitempty,oneof=Pending Confirmed Canceled Completed"`
	Language  *string `json:"language" binding:"omitempty,max=10"`
	Message   *string `json:"message"`
	IsActive  *bool   `json:"isActive"`
}

// TemplateController manages the message templates reminders are rendered from.
type TemplateController struct {
	DB *gorm.DB
}

// CreateReminderTemplate creates a new reminder template
func (t *TemplateController) CreateReminderTemplate(c *gin.Context) {
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// One active template per status and language
	if t.conflicts(c, salonUUID, input.StatusKey, input.Language, nil) {
		return
	}

	template := models.ReminderTemplate{
		SalonID:   salonUUID,
		Name:      input.Name,
		StatusKey: input.StatusKey,
		Language:  input.Language,
		Message:   input.Message,
		IsActive:  true,
	}
	if template.Name == "" {
		template.Name = input.StatusKey
	}

	if err := t.DB.Create(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetReminderTemplates retrieves all reminder templates for the salon
func (t *TemplateController) GetReminderTemplates(c *gin.Context) {
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var templates []models.ReminderTemplate
	if err := t.DB.Where("salon_id = ?", salonUUID).Order("status_key, language").Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

// GetReminderTemplate retrieves a specific template by ID
func (t *TemplateController) GetReminderTemplate(c *gin.Context) {
	template, ok := t.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, template)
}

// UpdateReminderTemplate updates an existing template
func (t *TemplateController) UpdateReminderTemplate(c *gin.Context) {
	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, ok := t.load(c)
	if !ok {
		return
	}

	statusKey, language := template.StatusKey, template.Language
	if input.StatusKey != nil {
		statusKey = *input.StatusKey
	}
	if input.Language != nil {
		language = *input.Language
	}
	active := template.IsActive
	if input.IsActive != nil {
		active = *input.IsActive
	}
	if active && (statusKey != template.StatusKey || language != template.Language || !template.IsActive) {
		if t.conflicts(c, template.SalonID, statusKey, language, &template) {
			return
		}
	}

	template.StatusKey, template.Language, template.IsActive = statusKey, language, active
	if input.Name != nil {
		template.Name = *input.Name
	}
	if input.Message != nil {
		template.Message = *input.Message
	}

	if err := t.DB.Save(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteReminderTemplate deletes a template
func (t *TemplateController) DeleteReminderTemplate(c *gin.Context) {
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return
	}
	templateUUID, ok := paramUUID(c, "id", "template")
	if !ok {
		return
	}

	result := t.DB.Where("salon_id = ? AND id = ?", salonUUID, templateUUID).
		Delete(&models.ReminderTemplate{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete template")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

func (t *TemplateController) load(c *gin.Context) (models.ReminderTemplate, bool) {
	var template models.ReminderTemplate
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return template, false
	}
	templateUUID, ok := paramUUID(c, "id", "template")
	if !ok {
		return template, false
	}

	if err := t.DB.Where("salon_id = ? AND id = ?", salonUUID, templateUUID).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return template, false
	}
	return template, true
}

// conflicts responds 409 when another active template covers the same
// status and language.
func (t *TemplateController) conflicts(c *gin.Context, salonID uuid.UUID, statusKey, language string, self *models.ReminderTemplate) bool {
	q := t.DB.Where("salon_id = ? AND status_key = ? AND language = ? AND is_active = ?", salonID, statusKey, language, true)
	if self != nil {
		q = q.Where("id <> ?", self.ID)
	}
	var existing models.ReminderTemplate
	err := q.First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Template for this status and language already exists")
		return true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return true
	}
	return false
}
