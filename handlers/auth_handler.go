package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"jrg-backend/middleware"
	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
)

type AuthHandler struct {
	tokens     *services.TokenService
	users      services.UserStore
	activities services.ActivityLogger
}

func NewAuthHandler(tokens *services.TokenService, users services.UserStore, activities services.ActivityLogger) *AuthHandler {
	return &AuthHandler{
		tokens:     tokens,
		users:      users,
		activities: activities,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"securepassword123"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/login
// @Summary User login
// @Description Authenticate a user and return an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Token pair"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 429 {object} map[string]string "Too many requests"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	clientIP := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")
	email := utils.NormalizeEmail(req.Email)

	// Unknown account, wrong password and non-active status all answer
	// with the same generic 401 so attackers learn nothing.
	user, err := h.users.FindByEmail(email)
	if err != nil {
		h.recordFailedLogin(email, clientIP, userAgent, "user not found")
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsActive() {
		h.recordFailedLogin(email, clientIP, userAgent, "account not active")
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := utils.VerifyPassword(req.Password, user.Password); err != nil {
		h.recordFailedLogin(email, clientIP, userAgent, "wrong password")
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	pair, err := h.tokens.IssuePair(user, clientIP)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not create session")
		return
	}

	if err := h.users.RecordLogin(user.ID, clientIP); err != nil {
		// Login still succeeds, the stamp is bookkeeping.
		log.Printf("Failed to record login time for user %d: %v", user.ID, err)
	}

	h.activities.Log(&user.ID, models.ActivityLogin, "User logged in", clientIP, userAgent, nil)

	respondData(c, http.StatusOK, pair)
}

// POST /api/refresh
// @Summary Refresh token pair
// @Description Exchange a refresh token for a new access/refresh pair
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]interface{} "New token pair"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Invalid or expired refresh token"
// @Failure 500 {object} map[string]string "Session store unavailable"
// @Router /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Refresh token is required")
		return
	}

	pair, err := h.tokens.Rotate(req.RefreshToken, c.ClientIP())
	if errors.Is(err, services.ErrInvalidOrExpired) {
		respondError(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	if err != nil {
		log.Printf("❌ Refresh rotation failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Could not refresh session")
		return
	}

	respondData(c, http.StatusOK, pair)
}

// POST /api/logout
// @Summary User logout
// @Description Blacklist the presented access token and revoke the optional refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param logout body LogoutRequest false "Optional refresh token to revoke"
// @Success 200 {object} map[string]string "Logged out"
// @Failure 401 {object} map[string]string "Authentication required"
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	accessToken := c.GetString("accessToken")
	h.tokens.Logout(accessToken, req.RefreshToken)

	if principal, ok := middleware.GetPrincipal(c); ok {
		h.activities.Log(&principal.UserID, models.ActivityLogout, "User logged out", c.ClientIP(), c.GetHeader("User-Agent"), nil)
	}

	respondMessage(c, http.StatusOK, "Logged out successfully")
}

// GET /api/status
// @Summary API status
// @Description Liveness signal for the public API
// @Tags status
// @Produce json
// @Success 200 {object} map[string]string "API is up"
// @Router /status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{"service": "jrg-backend", "state": "ok"})
}

func (h *AuthHandler) recordFailedLogin(email, ip, userAgent, reason string) {
	h.activities.Log(nil, models.ActivityLoginFailed, "Failed login attempt", ip, userAgent, models.JSONMap{
		"email":  email,
		"reason": reason,
	})
}
