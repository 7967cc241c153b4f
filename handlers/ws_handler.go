package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jrg-backend/middleware"
	"jrg-backend/services"
)

// WSHandler upgrades admin connections onto the event feed.
type WSHandler struct {
	hub *services.EventHub
}

func NewWSHandler(hub *services.EventHub) *WSHandler {
	return &WSHandler{hub: hub}
}

// GET /api/ws/admin
// @Summary Admin event feed
// @Description Upgrade to a websocket carrying contact, newsletter and security events
// @Tags events
// @Security BearerAuth
// @Success 101 "Switching protocols"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /ws/admin [get]
func (h *WSHandler) Connect(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	h.hub.HandleConnection(c, principal.UserID)
}
