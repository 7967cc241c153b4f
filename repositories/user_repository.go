package repositories

import (
	"time"

	"gorm.io/gorm"

	"jrg-backend/shared/database/models"
)

// UserRepository covers the user lookups the auth flow needs. The admin
// CRUD handlers query gorm directly, this narrow surface exists so the
// token and auth services stay mockable.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordLogin stamps the last successful login time and source address.
func (r *UserRepository) RecordLogin(userID uint, ip string) error {
	now := time.Now()
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_login_ip": ip,
		}).Error
}

// UpdatePassword sets a new password hash and flags the account as having
// a user-chosen password.
func (r *UserRepository) UpdatePassword(userID uint, hash string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password":         hash,
			"has_set_password": true,
		}).Error
}
