package auth

import (
	"time"

	"jrg-backend/shared/database/models"
)

type PasswordResetToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	Token     string     `json:"token" gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Used      bool       `json:"used" gorm:"default:false"`
	UsedAt    *time.Time `json:"used_at"`
	IPAddress string     `json:"ip_address" gorm:"size:45"`
	CreatedAt time.Time  `json:"created_at"`

	User models.User `json:"-" gorm:"foreignKey:UserID"`
}

func (t *PasswordResetToken) IsValid() bool {
	return !t.Used && t.ExpiresAt.After(time.Now())
}
