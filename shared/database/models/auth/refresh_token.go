package auth

import (
	"time"

	"jrg-backend/shared/database/models"
)

// RefreshToken is an opaque, single-use credential. Redeeming it revokes it;
// a revoked or expired token is permanently invalid.
type RefreshToken struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Token       string    `json:"token" gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt   time.Time `json:"expires_at" gorm:"not null"`
	Revoked     bool      `json:"revoked" gorm:"default:false"`
	CreatedByIP string    `json:"created_by_ip" gorm:"size:45"`
	CreatedAt   time.Time `json:"created_at"`

	User models.User `json:"-" gorm:"foreignKey:UserID"`
}

// IsValid reports whether the token is still redeemable. Revoked and expired
// are observably identical to callers.
func (t *RefreshToken) IsValid() bool {
	return !t.Revoked && t.ExpiresAt.After(time.Now())
}
