package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jrg-backend/repositories"
	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	authmodels "jrg-backend/shared/database/models/auth"
	utils "jrg-backend/shared/utils/auth"
)

const resetTokenTTL = time.Hour

// PasswordResetHandler covers the forgot-password flow.
type PasswordResetHandler struct {
	users      services.UserStore
	tokens     *services.TokenService
	oneTime    *repositories.OneTimeTokenRepository
	mailer     services.Mailer
	activities services.ActivityLogger
}

func NewPasswordResetHandler(users services.UserStore, tokens *services.TokenService, oneTime *repositories.OneTimeTokenRepository, mailer services.Mailer, activities services.ActivityLogger) *PasswordResetHandler {
	return &PasswordResetHandler{
		users:      users,
		tokens:     tokens,
		oneTime:    oneTime,
		mailer:     mailer,
		activities: activities,
	}
}

type ResetRequestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/password/reset-request
// @Summary Request password reset
// @Description Email a reset link. Always answers success so the existence of an account cannot be probed.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetRequestRequest true "Account email"
// @Success 200 {object} map[string]string "Reset email sent if the account exists"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Router /password/reset-request [post]
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var req ResetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email is required")
		return
	}

	email := utils.NormalizeEmail(req.Email)
	clientIP := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	// The answer is identical whether or not the account exists.
	successMessage := "If an account exists for this address, a reset email has been sent."

	user, err := h.users.FindByEmail(email)
	if err != nil || !user.IsActive() {
		respondMessage(c, http.StatusOK, successMessage)
		return
	}

	if err := h.oneTime.InvalidatePasswordResetsForUser(user.ID); err != nil {
		log.Printf("Failed to void reset tokens for user %d: %v", user.ID, err)
	}

	tokenValue, err := utils.GenerateRandomToken(32)
	if err != nil {
		respondMessage(c, http.StatusOK, successMessage)
		return
	}
	token := authmodels.PasswordResetToken{
		UserID:    user.ID,
		Token:     tokenValue,
		ExpiresAt: time.Now().Add(resetTokenTTL),
		IPAddress: clientIP,
	}
	if err := h.oneTime.CreatePasswordReset(&token); err != nil {
		log.Printf("Failed to store reset token for user %d: %v", user.ID, err)
		respondMessage(c, http.StatusOK, successMessage)
		return
	}

	if err := h.mailer.SendPasswordResetEmail(user.Email, user.FirstName, tokenValue); err != nil {
		log.Printf("Failed to send reset email to user %d: %v", user.ID, err)
	}

	h.activities.Log(&user.ID, models.ActivityPasswordResetRequest, "Password reset requested", clientIP, userAgent, nil)

	respondMessage(c, http.StatusOK, successMessage)
}

// POST /api/password/reset
// @Summary Reset password
// @Description Consume a reset token and set the new password
// @Tags auth
// @Accept json
// @Produce json
// @Param reset body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} map[string]string "Password reset"
// @Failure 400 {object} map[string]string "Invalid token or password"
// @Router /password/reset [post]
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Token and password are required")
		return
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.oneTime.ConsumePasswordReset(req.Token)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not reset password")
		return
	}
	if err := h.users.UpdatePassword(token.UserID, hash); err != nil {
		respondError(c, http.StatusInternalServerError, "Could not reset password")
		return
	}

	// Whoever held a session on the old password loses it.
	if err := h.tokens.RevokeUserSessions(token.UserID); err != nil {
		log.Printf("Failed to revoke sessions for user %d: %v", token.UserID, err)
	}

	h.activities.Log(&token.UserID, models.ActivityPasswordReset, "Password reset completed", c.ClientIP(), c.GetHeader("User-Agent"), nil)

	respondMessage(c, http.StatusOK, "Password has been reset. You can now log in.")
}
