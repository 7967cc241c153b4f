package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jrg-backend/repositories"
	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	authmodels "jrg-backend/shared/database/models/auth"
	utils "jrg-backend/shared/utils/auth"
	"jrg-backend/shared/utils/query"
)

const activationTokenTTL = 48 * time.Hour

// UserHandler covers the admin-only user management endpoints.
type UserHandler struct {
	db         *gorm.DB
	tokens     *services.TokenService
	oneTime    *repositories.OneTimeTokenRepository
	mailer     services.Mailer
	activities services.ActivityLogger
}

func NewUserHandler(db *gorm.DB, tokens *services.TokenService, oneTime *repositories.OneTimeTokenRepository, mailer services.Mailer, activities services.ActivityLogger) *UserHandler {
	return &UserHandler{
		db:         db,
		tokens:     tokens,
		oneTime:    oneTime,
		mailer:     mailer,
		activities: activities,
	}
}

type CreateUserRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
}

type UpdateUserRequest struct {
	Email       *string   `json:"email"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	MobilePhone *string   `json:"mobile_phone"`
	Roles       *[]string `json:"roles"`
	Status      *string   `json:"status"`
}

var userListOptions = query.Options{
	FilterFields: map[string]string{
		"status": "status",
	},
	SearchFields: []string{"email", "first_name", "last_name"},
	SortFields: map[string]string{
		"email":      "email",
		"created_at": "created_at",
		"last_login": "last_login_at",
	},
}

// GET /api/users
// @Summary List users
// @Description Paginated user list with search and filters
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Search in email and name"
// @Success 200 {object} map[string]interface{} "Users with pagination"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	params := query.Parse(c)

	base := params.Apply(h.db.Model(&models.User{}), userListOptions)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list users")
		return
	}

	var users []models.User
	if err := params.Paginate(base).Find(&users).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not list users")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"users":      users,
		"pagination": params.BuildPagination(total),
	})
}

// GET /api/users/:id
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{} "User"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, user)
}

// POST /api/users
// @Summary Create user
// @Description Create a pending user and email an activation link
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body CreateUserRequest true "New user"
// @Success 201 {object} map[string]interface{} "Created user"
// @Failure 400 {object} map[string]string "Validation error or duplicate email"
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if err := utils.ValidateEmail(email); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var existing models.User
	if err := h.db.Where("email = ?", email).First(&existing).Error; err == nil {
		respondError(c, http.StatusBadRequest, "Email already exists")
		return
	}

	// The account starts with an unusable random password; the owner
	// chooses their own during activation.
	placeholder, err := utils.GenerateRandomToken(32)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not create user")
		return
	}
	hash, err := utils.HashPassword(placeholder)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not create user")
		return
	}

	roles := models.StringList(req.Roles)
	for _, role := range roles {
		if role != models.RoleAdmin && role != models.RoleUser {
			respondError(c, http.StatusBadRequest, "Unknown role: "+role)
			return
		}
	}

	user := models.User{
		Email:     email,
		Password:  hash,
		Roles:     roles,
		Status:    models.StatusPending,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := h.db.Create(&user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not create user")
		return
	}

	if err := h.issueActivation(&user); err != nil {
		log.Printf("Failed to issue activation for user %d: %v", user.ID, err)
	}

	respondData(c, http.StatusCreated, user)
}

// PUT /api/users/:id
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "Fields to update"
// @Success 200 {object} map[string]interface{} "Updated user"
// @Failure 400 {object} map[string]string "Validation error or duplicate email"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if err := utils.ValidateEmail(email); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		var existing models.User
		if err := h.db.Where("email = ? AND id <> ?", email, user.ID).First(&existing).Error; err == nil {
			respondError(c, http.StatusBadRequest, "Email already exists")
			return
		}
		user.Email = email
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
	if req.Roles != nil {
		for _, role := range *req.Roles {
			if role != models.RoleAdmin && role != models.RoleUser {
				respondError(c, http.StatusBadRequest, "Unknown role: "+role)
				return
			}
		}
		user.Roles = models.StringList(*req.Roles)
	}
	if req.Status != nil {
		if err := user.SetStatus(*req.Status); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		if *req.Status == models.StatusBlocked {
			if err := h.tokens.RevokeUserSessions(user.ID); err != nil {
				log.Printf("Failed to revoke sessions for user %d: %v", user.ID, err)
			}
		}
	}

	if err := h.db.Save(user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not update user")
		return
	}

	respondData(c, http.StatusOK, user)
}

// DELETE /api/users/:id
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string "User deleted"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	if err := h.tokens.RevokeUserSessions(user.ID); err != nil {
		log.Printf("Failed to revoke sessions for user %d: %v", user.ID, err)
	}

	if err := h.db.Delete(user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not delete user")
		return
	}

	respondMessage(c, http.StatusOK, "User deleted")
}

// POST /api/users/:id/block
// @Summary Block user
// @Description Block an account and revoke its refresh tokens
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{} "Blocked user"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id}/block [post]
func (h *UserHandler) Block(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	if err := user.SetStatus(models.StatusBlocked); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.db.Save(user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not block user")
		return
	}

	if err := h.tokens.RevokeUserSessions(user.ID); err != nil {
		log.Printf("Failed to revoke sessions for user %d: %v", user.ID, err)
	}

	respondData(c, http.StatusOK, user)
}

// POST /api/users/:id/resend-activation
// @Summary Resend activation email
// @Description Void previous activation tokens and email a fresh one
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string "Activation email sent"
// @Failure 400 {object} map[string]string "User is not pending activation"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id}/resend-activation [post]
func (h *UserHandler) ResendActivation(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	if user.Status != models.StatusPending {
		respondError(c, http.StatusBadRequest, "User is not pending activation")
		return
	}

	if err := h.issueActivation(user); err != nil {
		respondError(c, http.StatusInternalServerError, "Could not send activation email")
		return
	}

	respondMessage(c, http.StatusOK, "Activation email sent")
}

// issueActivation voids outstanding tokens, stores a fresh one and emails
// the activation link.
func (h *UserHandler) issueActivation(user *models.User) error {
	if err := h.oneTime.InvalidateActivationsForUser(user.ID); err != nil {
		return err
	}

	tokenValue, err := utils.GenerateRandomToken(32)
	if err != nil {
		return err
	}
	token := authmodels.ActivationToken{
		UserID:    user.ID,
		Token:     tokenValue,
		ExpiresAt: time.Now().Add(activationTokenTTL),
	}
	if err := h.oneTime.CreateActivation(&token); err != nil {
		return err
	}

	return h.mailer.SendActivationEmail(user.Email, user.FirstName, tokenValue)
}

func (h *UserHandler) findUser(c *gin.Context) (*models.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return nil, false
	}

	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
		} else {
			respondError(c, http.StatusInternalServerError, "Could not load user")
		}
		return nil, false
	}
	return &user, true
}
