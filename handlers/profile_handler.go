package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jrg-backend/middleware"
	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
)

// ProfileHandler serves the authenticated user's own account.
type ProfileHandler struct {
	db         *gorm.DB
	users      services.UserStore
	tokens     *services.TokenService
	activities services.ActivityLogger
}

func NewProfileHandler(db *gorm.DB, users services.UserStore, tokens *services.TokenService, activities services.ActivityLogger) *ProfileHandler {
	return &ProfileHandler{
		db:         db,
		users:      users,
		tokens:     tokens,
		activities: activities,
	}
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	MobilePhone *string `json:"mobile_phone"`
	BirthDate   *string `json:"birth_date"` // YYYY-MM-DD
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// GET /api/profile
// @Summary Get own profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Profile"
// @Failure 401 {object} map[string]string "Authentication required"
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.users.FindByID(principal.UserID)
	if err != nil {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}

	h.activities.Log(&user.ID, models.ActivityProfileView, "Profile viewed", c.ClientIP(), c.GetHeader("User-Agent"), nil)

	respondData(c, http.StatusOK, user)
}

// PUT /api/profile
// @Summary Update own profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} map[string]interface{} "Updated profile"
// @Failure 400 {object} map[string]string "Validation error"
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.User
	if err := h.db.First(&user, principal.UserID).Error; err != nil {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.MobilePhone != nil {
		user.MobilePhone = *req.MobilePhone
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			user.BirthDate = nil
		} else {
			parsed, err := time.Parse("2006-01-02", *req.BirthDate)
			if err != nil {
				respondError(c, http.StatusBadRequest, "Birth date must be YYYY-MM-DD")
				return
			}
			user.BirthDate = &parsed
		}
	}

	if err := h.db.Save(&user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not update profile")
		return
	}

	h.activities.Log(&user.ID, models.ActivityProfileUpdate, "Profile updated", c.ClientIP(), c.GetHeader("User-Agent"), nil)

	respondData(c, http.StatusOK, user)
}

// POST /api/profile/change-password
// @Summary Change own password
// @Description Verify the current password, set the new one and revoke other sessions
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param passwords body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} map[string]string "Password changed"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Current password is wrong"
// @Router /profile/change-password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Current and new password are required")
		return
	}

	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.FindByID(principal.UserID)
	if err != nil {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}

	if err := utils.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		respondError(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not change password")
		return
	}
	if err := h.users.UpdatePassword(user.ID, hash); err != nil {
		respondError(c, http.StatusInternalServerError, "Could not change password")
		return
	}

	// Other devices must log in again with the new password.
	if err := h.tokens.RevokeUserSessions(user.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "Could not revoke sessions")
		return
	}

	h.activities.Log(&user.ID, models.ActivityPasswordChange, "Password changed", c.ClientIP(), c.GetHeader("User-Agent"), nil)

	respondMessage(c, http.StatusOK, "Password changed successfully")
}
