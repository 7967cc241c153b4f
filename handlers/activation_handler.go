package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jrg-backend/repositories"
	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
)

// ActivationHandler completes the account setup started by an admin.
type ActivationHandler struct {
	db         *gorm.DB
	oneTime    *repositories.OneTimeTokenRepository
	activities services.ActivityLogger
}

func NewActivationHandler(db *gorm.DB, oneTime *repositories.OneTimeTokenRepository, activities services.ActivityLogger) *ActivationHandler {
	return &ActivationHandler{
		db:         db,
		oneTime:    oneTime,
		activities: activities,
	}
}

type ActivateRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/activate
// @Summary Activate account
// @Description Consume an activation token, set the chosen password and mark the account active
// @Tags auth
// @Accept json
// @Produce json
// @Param activation body ActivateRequest true "Activation token and chosen password"
// @Success 200 {object} map[string]string "Account activated"
// @Failure 400 {object} map[string]string "Invalid token or password"
// @Router /activate [post]
func (h *ActivationHandler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Token and password are required")
		return
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.oneTime.ConsumeActivation(req.Token)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid or expired activation token")
		return
	}

	var user models.User
	if err := h.db.First(&user, token.UserID).Error; err != nil {
		respondError(c, http.StatusBadRequest, "Invalid or expired activation token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not activate account")
		return
	}

	now := time.Now()
	user.Password = hash
	user.HasSetPassword = true
	user.Status = models.StatusActive
	user.EmailVerifiedAt = &now
	if err := h.db.Save(&user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not activate account")
		return
	}

	h.activities.Log(&user.ID, models.ActivityAccountActivation, "Account activated", c.ClientIP(), c.GetHeader("User-Agent"), nil)

	respondMessage(c, http.StatusOK, "Account activated. You can now log in.")
}
