package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jrg-backend/middleware"
	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
	"jrg-backend/shared/utils/query"
)

// ContactHandler takes public contact form submissions and serves the
// admin inbox.
type ContactHandler struct {
	db       *gorm.DB
	security *services.SecurityService
	mailer   services.Mailer
	events   *services.EventHub
}

func NewContactHandler(db *gorm.DB, security *services.SecurityService, mailer services.Mailer, events *services.EventHub) *ContactHandler {
	return &ContactHandler{
		db:       db,
		security: security,
		mailer:   mailer,
		events:   events,
	}
}

type UpdateContactRequest struct {
	Status *string `json:"status"`
	IsRead *bool   `json:"is_read"`
}

var contactListOptions = query.Options{
	FilterFields: map[string]string{
		"status":  "status",
		"is_read": "is_read",
	},
	SearchFields: []string{"name", "email", "message"},
	SortFields: map[string]string{
		"created_at": "created_at",
		"name":       "name",
	},
}

// POST /api/contact
// @Summary Submit contact form
// @Description Store a contact message after the abuse checks pass
// @Tags contact
// @Accept json
// @Produce json
// @Success 201 {object} map[string]string "Message received"
// @Failure 400 {object} map[string]string "Validation or security rejection"
// @Failure 429 {object} map[string]string "Too many requests"
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	submission, ok := middleware.GetSubmission(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	fields, violation := h.security.SanitizeAndValidate(submission)
	if violation != nil {
		respondError(c, violation.Status, violation.Message)
		return
	}

	name := fields["name"]
	email := utils.NormalizeEmail(fields["email"])
	message := fields["message"]

	if name == "" || message == "" {
		respondError(c, http.StatusBadRequest, "Name and message are required")
		return
	}
	if err := utils.ValidateEmail(email); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	record := models.ContactMessage{
		Name:    name,
		Email:   email,
		Phone:   fields["phone"],
		Message: message,
		Status:  models.ContactStatusPending,
	}
	if err := h.db.Create(&record).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not store your message")
		return
	}

	// The message is stored; mail trouble stays out of the response.
	if err := h.mailer.SendContactConfirmation(email, name); err != nil {
		log.Printf("Failed to send contact confirmation to %s: %v", email, err)
	}
	if err := h.mailer.SendContactNotification(name, email, message); err != nil {
		log.Printf("Failed to send contact notification: %v", err)
	}

	h.events.Publish(services.EventContactMessage, map[string]interface{}{
		"id":   record.ID,
		"name": record.Name,
	})

	respondMessage(c, http.StatusCreated, "Thank you, your message has been received.")
}

// GET /api/contact
// @Summary List contact messages
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param search query string false "Search in name, email and message"
// @Success 200 {object} map[string]interface{} "Messages with pagination"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /contact [get]
func (h *ContactHandler) List(c *gin.Context) {
	params := query.Parse(c)

	base := params.Apply(h.db.Model(&models.ContactMessage{}), contactListOptions)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list messages")
		return
	}

	var messages []models.ContactMessage
	if err := params.Paginate(base).Find(&messages).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list messages")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"messages":   messages,
		"pagination": params.BuildPagination(total),
	})
}

// PATCH /api/contact/:id
// @Summary Update contact message status
// @Tags contact
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Param update body UpdateContactRequest true "Status and read flag"
// @Success 200 {object} map[string]interface{} "Updated message"
// @Failure 400 {object} map[string]string "Unknown status"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /contact/{id} [patch]
func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid message ID")
		return
	}

	var record models.ContactMessage
	if err := h.db.First(&record, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Message not found")
		} else {
			respondError(c, http.StatusInternalServerError, "Could not load message")
		}
		return
	}

	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Status != nil {
		if !models.ValidContactStatus(*req.Status) {
			respondError(c, http.StatusBadRequest, "Unknown status: "+*req.Status)
			return
		}
		record.Status = *req.Status
	}
	if req.IsRead != nil {
		record.IsRead = *req.IsRead
	}

	if err := h.db.Save(&record).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not update message")
		return
	}

	respondData(c, http.StatusOK, record)
}
