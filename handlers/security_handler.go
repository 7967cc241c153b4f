package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jrg-backend/middleware"
	"jrg-backend/services"
)

type SecurityHandler struct {
	security *services.SecurityService
}

func NewSecurityHandler(security *services.SecurityService) *SecurityHandler {
	return &SecurityHandler{security: security}
}

// GET /api/security/csrf-token
// @Summary Issue CSRF token
// @Description Issue a CSRF token bound to the caller's session cookie
// @Tags security
// @Produce json
// @Success 200 {object} map[string]interface{} "CSRF token"
// @Failure 500 {object} map[string]string "Token generation failed"
// @Router /security/csrf-token [get]
func (h *SecurityHandler) CSRFToken(c *gin.Context) {
	sessionID, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || sessionID == "" {
		sessionID = uuid.NewString()
		// Session cookie is HttpOnly; the CSRF token itself travels in
		// the response body and comes back as a form field.
		c.SetCookie(middleware.SessionCookieName, sessionID, 0, "/", "", false, true)
	}

	token, err := h.security.IssueCSRFToken(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not issue token")
		return
	}

	respondData(c, http.StatusOK, gin.H{"csrf_token": token})
}
