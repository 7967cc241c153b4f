package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jrg-backend/middleware"
	"jrg-backend/shared/database/models"
	"jrg-backend/shared/utils/query"
)

// ActivityHandler serves the append-only activity log, admin-wide and
// per-user.
type ActivityHandler struct {
	db *gorm.DB
}

func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{db: db}
}

var activityListOptions = query.Options{
	FilterFields: map[string]string{
		"type":    "type",
		"user_id": "user_id",
	},
	SearchFields: []string{"description", "ip_address"},
	SortFields: map[string]string{
		"created_at": "created_at",
		"type":       "type",
	},
}

// GET /api/activity
// @Summary List activity log
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param filters[type] query string false "Filter by activity type"
// @Success 200 {object} map[string]interface{} "Activities with pagination"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	h.list(c, h.db.Model(&models.ActivityLog{}))
}

// GET /api/activity/me
// @Summary List own activity
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Success 200 {object} map[string]interface{} "Activities with pagination"
// @Failure 401 {object} map[string]string "Authentication required"
// @Router /activity/me [get]
func (h *ActivityHandler) ListOwn(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	h.list(c, h.db.Model(&models.ActivityLog{}).Where("user_id = ?", principal.UserID))
}

func (h *ActivityHandler) list(c *gin.Context, scope *gorm.DB) {
	params := query.Parse(c)

	base := params.Apply(scope, activityListOptions)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list activity")
		return
	}

	var activities []models.ActivityLog
	if err := params.Paginate(base).Find(&activities).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list activity")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"activities": activities,
		"pagination": params.BuildPagination(total),
	})
}
