package controllers

import (
	"errors"
	"net/http"

	"salonpro-notifier/models"
	"salonpro-notifier/services"
	"salonpro-notifier/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoutineInput struct {
	Name          string     `json:"name" binding:"required"`
	StatusToMatch string     `json:"statusToMatch" binding:"required,oneof=Pending Confirmed Canceled Completed"`
	TemplateID    *uuid.UUID `json:"templateId"`
	HoursBefore   int        `json:"hoursBefore" binding:"min=0,max=720"`
	IsActive      *bool      `json:"isActive"`
}

// RoutineController exposes reminder routines and lets operators run them.
type RoutineController struct {
	DB        *gorm.DB
	Reminders *services.ReminderService
}

func (r *RoutineController) GetRoutines(c *gin.Context) {
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var routines []models.Routine
	if err := r.DB.Where("salon_id = ?", salonUUID).Order("name ASC").Find(&routines).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve routines")
		return
	}
	c.JSON(http.StatusOK, routines)
}

func (r *RoutineController) CreateRoutine(c *gin.Context) {
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input RoutineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !r.templateBelongs(c, salonUUID, input.TemplateID) {
		return
	}

	routine := models.Routine{
		SalonID:       salonUUID,
		Name:          input.Name,
		StatusToMatch: input.StatusToMatch,
		TemplateID:    input.TemplateID,
		HoursBefore:   input.HoursBefore,
		IsActive:      input.IsActive == nil || *input.IsActive,
	}
	if err := r.DB.Create(&routine).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create routine")
		return
	}
	c.JSON(http.StatusCreated, routine)
}

// UpdateRoutine replaces the routine's policy. Changing the offset makes
// existing marks stale, so affected appointments are reconsidered.
func (r *RoutineController) UpdateRoutine(c *gin.Context) {
	routine, ok := r.load(c)
	if !ok {
		return
	}

	var input RoutineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !r.templateBelongs(c, routine.SalonID, input.TemplateID) {
		return
	}

	routine.Name = input.Name
	routine.StatusToMatch = input.StatusToMatch
	routine.TemplateID = input.TemplateID
	routine.HoursBefore = input.HoursBefore
	if input.IsActive != nil {
		routine.IsActive = *input.IsActive
	}
	if err := r.DB.Save(&routine).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update routine")
		return
	}
	c.JSON(http.StatusOK, routine)
}

// RunRoutine sends what is due right now, exactly as the scheduler would.
func (r *RoutineController) RunRoutine(c *gin.Context) {
	routine, ok := r.load(c)
	if !ok {
		return
	}
	summary, err := r.Reminders.RunRoutine(c.Request.Context(), routine)
	if err != nil && summary == nil {
		respondError(c, err, "Failed to run routine")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ForceRoutine sends to every upcoming appointment the routine has not reached.
func (r *RoutineController) ForceRoutine(c *gin.Context) {
	routine, ok := r.load(c)
	if !ok {
		return
	}
	summary, err := r.Reminders.ForceRoutine(c.Request.Context(), routine)
	if err != nil && summary == nil {
		respondError(c, err, "Failed to run routine")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (r *RoutineController) GetExecutions(c *gin.Context) {
	routine, ok := r.load(c)
	if !ok {
		return
	}
	logs, err := r.Reminders.Executions().ListForRoutine(c.Request.Context(), routine.ID, queryLimit(c, 20))
	if err != nil {
		respondError(c, err, "Failed to retrieve executions")
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetExecution returns one execution log of the caller's salon.
func (r *RoutineController) GetExecution(c *gin.Context) {
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "execution")
	if !ok {
		return
	}
	entry, err := r.Reminders.Executions().Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve execution")
		return
	}
	if entry.SalonID != salonUUID {
		utils.RespondWithError(c, http.StatusNotFound, "Execution not found")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (r *RoutineController) load(c *gin.Context) (models.Routine, bool) {
	var routine models.Routine
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return routine, false
	}
	id, ok := paramUUID(c, "id", "routine")
	if !ok {
		return routine, false
	}
	err := r.DB.Where("salon_id = ? AND id = ?", salonUUID, id).First(&routine).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Routine not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return routine, false
	}
	return routine, true
}

func (r *RoutineController) templateBelongs(c *gin.Context, salonID uuid.UUID, templateID *uuid.UUID) bool {
	if templateID == nil {
		return true
	}
	var n int64
	if err := r.DB.Model(&models.ReminderTemplate{}).Where("salon_id = ? AND id = ?", salonID, *templateID).Count(&n).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return false
	}
	if n == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Template not found for this salon")
		return false
	}
	return true
}
