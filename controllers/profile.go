package controllers

import (
	"net/http"

	"salonpro-notifier/models"
	"salonpro-notifier/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateProfileInput struct {
	SalonName       *string `json:"salonName"`
	SalonAddress    *string `json:"salonAddress"`
	Phone           *string `json:"phone"`
	DefaultLanguage *string `json:"defaultLanguage" binding:"omitempty,max=10"`
}

type UpdateNotificationsInput struct {
	WhatsAppNotifications *bool `json:"whatsAppNotifications"`
	SMSNotifications      *bool `json:"smsNotifications"`
}

// ProfileController reads and edits the caller's salon. The default
// language is the fallback when a customer has none.
type ProfileController struct {
	DB *gorm.DB
}

func (p *ProfileController) GetProfile(c *gin.Context) {
	salon, ok := p.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profileJSON(salon))
}

func (p *ProfileController) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Phone != nil && *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
		return
	}

	salon, ok := p.load(c)
	if !ok {
		return
	}
	if input.SalonName != nil {
		salon.Name = *input.SalonName
	}
	if input.SalonAddress != nil {
		salon.Address = *input.SalonAddress
	}
	if input.Phone != nil {
		salon.Phone = *input.Phone
	}
	if input.DefaultLanguage != nil {
		salon.DefaultLanguage = *input.DefaultLanguage
	}

	if err := p.DB.Save(&salon).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, profileJSON(salon))
}

func (p *ProfileController) UpdateNotificationSettings(c *gin.Context) {
	var input UpdateNotificationsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	salon, ok := p.load(c)
	if !ok {
		return
	}
	updates := map[string]interface{}{}
	if input.WhatsAppNotifications != nil {
		updates["whats_app_notifications"] = *input.WhatsAppNotifications
	}
	if input.SMSNotifications != nil {
		updates["sms_notifications"] = *input.SMSNotifications
	}
	if len(updates) > 0 {
		if err := p.DB.Model(&salon).Updates(updates).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated successfully"})
}

func (p *ProfileController) load(c *gin.Context) (models.Salon, bool) {
	var salon models.Salon
	salonUUID, ok := salonFromContext(c)
	if !ok {
		return salon, false
	}
	if err := p.DB.First(&salon, "id = ?", salonUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return salon, false
	}
	return salon, true
}

func profileJSON(s models.Salon) gin.H {
	return gin.H{
		"salonName":             s.Name,
		"salonAddress":          s.Address,
		"phone":                 s.Phone,
		"workingHours":          s.WorkingHours,
		"defaultLanguage":       s.DefaultLanguage,
		"whatsAppNotifications": s.WhatsAppNotifications,
		"smsNotifications":      s.SMSNotifications,
	}
}
