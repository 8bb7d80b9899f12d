package controllers

import (
	"net/http"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/utils"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// salonFromContext reads the salon claim set by utils.AuthMiddleware.
func salonFromContext(c *gin.Context) (uuid.UUID, bool) {
	salonID, exists := c.Get("salonId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return uuid.Nil, false
	}
	raw, _ := salonID.(string)
	salonUUID, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid salon ID format")
		return uuid.Nil, false
	}
	return salonUUID, true
}

func paramUUID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps the error taxonomy to a status code.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case apperrors.IsNotFound(err):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrRunInProgress):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case apperrors.IsConfiguration(err):
		msg := err.Error()
		if hint := errors.FlattenHints(err); hint != "" {
			msg += " (" + hint + ")"
		}
		utils.RespondWithError(c, http.StatusServiceUnavailable, msg)
	default:
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}

func queryLimit(c *gin.Context, def int) int {
	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
	}
	if err := c.ShouldBindQuery(&q); err != nil || q.Limit == 0 {
		return def
	}
	return q.Limit
}
