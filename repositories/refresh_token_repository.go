package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"jrg-backend/shared/database/models/auth"
)

var ErrTokenNotFound = errors.New("token not found or no longer valid")

// RefreshTokenRepository persists opaque refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(token *auth.RefreshToken) error {
	return r.db.Create(token).Error
}

// ConsumeActive revokes the token iff it is currently active and unexpired,
// in a single conditional UPDATE. Exactly one affected row proves this
// caller won the token; concurrent callers see zero rows and lose. The
// consumed row is returned so the caller knows which user it belonged to.
func (r *RefreshTokenRepository) ConsumeActive(token string) (*auth.RefreshToken, error) {
	result := r.db.Model(&auth.RefreshToken{}).
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, time.Now()).
		Update("revoked", true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, ErrTokenNotFound
	}

	var consumed auth.RefreshToken
	if err := r.db.Where("token = ?", token).First(&consumed).Error; err != nil {
		return nil, err
	}
	return &consumed, nil
}

// Revoke marks the token revoked. Revoking an unknown or already revoked
// token is not an error, logout must stay idempotent.
func (r *RefreshTokenRepository) Revoke(token string) error {
	return r.db.Model(&auth.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true).Error
}

// RevokeAllForUser invalidates every refresh token a user holds. Used when
// an account is blocked or its password reset.
func (r *RefreshTokenRepository) RevokeAllForUser(userID uint) error {
	return r.db.Model(&auth.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}
