package auth

import (
	"time"

	"jrg-backend/shared/database/models"
)

// ActivationToken lets a PENDING user set a password and become ACTIVE.
type ActivationToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Token     string    `json:"token" gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`

	User models.User `json:"-" gorm:"foreignKey:UserID"`
}

func (t *ActivationToken) IsValid() bool {
	return !t.Used && t.ExpiresAt.After(time.Now())
}
