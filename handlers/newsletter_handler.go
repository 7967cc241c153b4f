package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jrg-backend/middleware"
	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
	"jrg-backend/shared/utils/query"
)

// NewsletterHandler manages public subscribe/unsubscribe and the admin
// subscriber list. Unsubscribe links carry the address encrypted, so a
// plain email in a forwarded mail cannot be used to opt someone out.
type NewsletterHandler struct {
	db       *gorm.DB
	security *services.SecurityService
	mailer   services.Mailer
	events   *services.EventHub
	cipher   *utils.EmailTokenCipher
}

func NewNewsletterHandler(db *gorm.DB, security *services.SecurityService, mailer services.Mailer, events *services.EventHub, cipher *utils.EmailTokenCipher) *NewsletterHandler {
	return &NewsletterHandler{
		db:       db,
		security: security,
		mailer:   mailer,
		events:   events,
		cipher:   cipher,
	}
}

var newsletterListOptions = query.Options{
	FilterFields: map[string]string{
		"status": "status",
	},
	SearchFields: []string{"email"},
	SortFields: map[string]string{
		"email":         "email",
		"created_at":    "created_at",
		"subscribed_at": "subscribed_at",
	},
}

// POST /api/newsletter/subscribe
// @Summary Subscribe to the newsletter
// @Description Subscribe an address after the abuse checks pass. Resubscribing is allowed; an already active address still answers success.
// @Tags newsletter
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Subscribed"
// @Failure 400 {object} map[string]string "Validation or security rejection"
// @Failure 429 {object} map[string]string "Too many requests"
// @Router /newsletter/subscribe [post]
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
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

	email := utils.NormalizeEmail(fields["email"])
	if err := utils.ValidateEmail(email); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var subscription models.NewsletterSubscription
	err := h.db.Where("email = ?", email).First(&subscription).Error
	switch {
	case err == nil:
		if subscription.Status == models.NewsletterStatusActive {
			respondMessage(c, http.StatusOK, "You are subscribed to our newsletter.")
			return
		}
		subscription.Subscribe()
		if err := h.db.Save(&subscription).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "Could not subscribe")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		subscription = models.NewsletterSubscription{Email: email}
		subscription.Subscribe()
		if err := h.db.Create(&subscription).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "Could not subscribe")
			return
		}
	default:
		respondError(c, http.StatusInternalServerError, "Could not subscribe")
		return
	}

	unsubscribeToken, err := h.cipher.Encrypt(email)
	if err != nil {
		log.Printf("Failed to build unsubscribe token for %s: %v", email, err)
	} else if err := h.mailer.SendNewsletterConfirmation(email, unsubscribeToken); err != nil {
		log.Printf("Failed to send newsletter confirmation to %s: %v", email, err)
	}

	h.events.Publish(services.EventNewsletterSubscribed, map[string]interface{}{
		"id": subscription.ID,
	})

	respondMessage(c, http.StatusOK, "You are subscribed to our newsletter.")
}

// GET /api/newsletter/unsubscribe
// @Summary Unsubscribe from the newsletter
// @Description Opt out using the encrypted token from a newsletter email
// @Tags newsletter
// @Produce json
// @Param token query string true "Encrypted unsubscribe token"
// @Success 200 {object} map[string]string "Unsubscribed"
// @Failure 400 {object} map[string]string "Invalid token"
// @Router /newsletter/unsubscribe [get]
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "Unsubscribe token is required")
		return
	}

	email, err := h.cipher.Decrypt(token)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid unsubscribe token")
		return
	}

	var subscription models.NewsletterSubscription
	if err := h.db.Where("email = ?", utils.NormalizeEmail(email)).First(&subscription).Error; err != nil {
		respondError(c, http.StatusBadRequest, "Invalid unsubscribe token")
		return
	}

	if subscription.Status != models.NewsletterStatusUnsubscribed {
		subscription.Unsubscribe()
		if err := h.db.Save(&subscription).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "Could not unsubscribe")
			return
		}
	}

	respondMessage(c, http.StatusOK, "You have been unsubscribed.")
}

// GET /api/newsletter/subscribers
// @Summary List newsletter subscribers
// @Tags newsletter
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param search query string false "Search by email"
// @Success 200 {object} map[string]interface{} "Subscribers with pagination"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /newsletter/subscribers [get]
func (h *NewsletterHandler) List(c *gin.Context) {
	params := query.Parse(c)

	base := params.Apply(h.db.Model(&models.NewsletterSubscription{}), newsletterListOptions)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list subscribers")
		return
	}

	var subscribers []models.NewsletterSubscription
	if err := params.Paginate(base).Find(&subscribers).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list subscribers")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"subscribers": subscribers,
		"pagination":  params.BuildPagination(total),
	})
}
