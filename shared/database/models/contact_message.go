package models

import "time"

const (
	ContactStatusPending   = "pending"
	ContactStatusProcessed = "processed"
	ContactStatusArchived  = "archived"
)

type ContactMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:180;not null"`
	Phone     string    `json:"phone" gorm:"size:20"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	Status    string    `json:"status" gorm:"size:20;not null;default:'pending'"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidContactStatus reports whether the value is an accepted status.
func ValidContactStatus(status string) bool {
	switch status {
	case ContactStatusPending, ContactStatusProcessed, ContactStatusArchived:
		return true
	}
	return false
}
