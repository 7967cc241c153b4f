package repositories

import (
	"time"

	"gorm.io/gorm"

	"jrg-backend/shared/database/models/auth"
)

// OneTimeTokenRepository manages activation and password reset tokens.
// Both follow the same lifecycle: issued, consumed once, never reused.
type OneTimeTokenRepository struct {
	db *gorm.DB
}

func NewOneTimeTokenRepository(db *gorm.DB) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{db: db}
}

func (r *OneTimeTokenRepository) CreateActivation(token *auth.ActivationToken) error {
	return r.db.Create(token).Error
}

// ConsumeActivation marks the token used iff it is still valid, using the
// same conditional-update pattern the refresh rotation uses.
func (r *OneTimeTokenRepository) ConsumeActivation(token string) (*auth.ActivationToken, error) {
	result := r.db.Model(&auth.ActivationToken{}).
		Where("token = ? AND used = ? AND expires_at > ?", token, false, time.Now()).
		Update("used", true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, ErrTokenNotFound
	}

	var consumed auth.ActivationToken
	if err := r.db.Where("token = ?", token).First(&consumed).Error; err != nil {
		return nil, err
	}
	return &consumed, nil
}

// InvalidateActivationsForUser voids outstanding activation tokens before a
// new one is issued, so only the most recent email works.
func (r *OneTimeTokenRepository) InvalidateActivationsForUser(userID uint) error {
	return r.db.Model(&auth.ActivationToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error
}

func (r *OneTimeTokenRepository) CreatePasswordReset(token *auth.PasswordResetToken) error {
	return r.db.Create(token).Error
}

func (r *OneTimeTokenRepository) ConsumePasswordReset(token string) (*auth.PasswordResetToken, error) {
	now := time.Now()
	result := r.db.Model(&auth.PasswordResetToken{}).
		Where("token = ? AND used = ? AND expires_at > ?", token, false, now).
		Updates(map[string]interface{}{
			"used":    true,
			"used_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, ErrTokenNotFound
	}

	var consumed auth.PasswordResetToken
	if err := r.db.Where("token = ?", token).First(&consumed).Error; err != nil {
		return nil, err
	}
	return &consumed, nil
}

func (r *OneTimeTokenRepository) InvalidatePasswordResetsForUser(userID uint) error {
	now := time.Now()
	return r.db.Model(&auth.PasswordResetToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Updates(map[string]interface{}{
			"used":    true,
			"used_at": now,
		}).Error
}
