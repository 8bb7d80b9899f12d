package controllers

import (
	"net/http"
	"time"

	"salonpro-notifier/models"
	"salonpro-notifier/services"
	"salonpro-notifier/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ResendInput struct {
	TemplateID *uuid.UUID `json:"templateId"`
	ForceSend  bool       `json:"forceSend"`
}

// AppointmentEventInput is what the booking system posts after it writes an
// appointment. PreviousStart is the old wall-clock start, e.g.
// "2025-01-02T10:00:00"; any zone suffix is ignored.
type AppointmentEventInput struct {
	Kind           string `json:"kind" binding:"required,oneof=created status_changed rescheduled"`
	PreviousStatus string `json:"previousStatus"`
	PreviousStart  string `json:"previousStart"`
}

// AppointmentController covers message history, manual sends and booking events.
type AppointmentController struct {
	Reminders  *services.ReminderService
	Dispatcher *services.AppointmentDispatcher
}

func (a *AppointmentController) GetSends(c *gin.Context) {
	appt, ok := a.load(c)
	if !ok {
		return
	}
	recs, err := a.Reminders.Sends().ListForAppointment(c.Request.Context(), appt.ID, queryLimit(c, 50))
	if err != nil {
		respondError(c, err, "Failed to retrieve sends")
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Resend sends the message for the appointment's current status. Without
// forceSend a recent identical message is reported as skipped.
func (a *AppointmentController) Resend(c *gin.Context) {
	var input ResendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appt, ok := a.load(c)
	if !ok {
		return
	}

	report, err := a.Reminders.SendOne(c.Request.Context(), services.ManualSend{
		AppointmentID: appt.ID,
		TemplateID:    input.TemplateID,
		SendType:      models.SendTypeManual,
		ForceSend:     input.ForceSend,
	})
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}
	status := http.StatusOK
	if report.Outcome == services.OutcomeFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, report)
}

func (a *AppointmentController) PostEvent(c *gin.Context) {
	var input AppointmentEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	var previousStart *time.Time
	if input.PreviousStart != "" {
		t, err := parseWallClock(input.PreviousStart)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid previousStart")
			return
		}
		previousStart = &t
	}

	appt, ok := a.load(c)
	if !ok {
		return
	}

	ev := services.AppointmentEvent{
		Kind:           services.AppointmentEventKind(input.Kind),
		Appointment:    appt,
		PreviousStatus: input.PreviousStatus,
		PreviousStart:  previousStart,
		OccurredAt:     time.Now().UTC(),
	}
	if err := a.Dispatcher.Dispatch(c.Request.Context(), ev); err != nil {
		respondError(c, err, "Event handled with errors")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Event dispatched"})
}

func (a *AppointmentController) load(c *gin.Context) (models.Appointment, bool) {
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return models.Appointment{}, false
	}
	id, ok := paramUUID(c, "id", "appointment")
	if !ok {
		return models.Appointment{}, false
	}
	appt, err := a.Reminders.Appointment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Database error")
		return appt, false
	}
	if appt.SalonID != salonUUID {
		utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		return appt, false
	}
	return appt, true
}

func parseWallClock(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return utils.NaiveUTC(t), nil
}
