package models

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

const (
	StatusPending = "PENDING"
	StatusActive  = "ACTIVE"
	StatusBlocked = "BLOCKED"
)

var ErrInvalidStatus = errors.New("invalid user status")

type User struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"size:180;uniqueIndex;not null"`
	Password        string     `json:"-" gorm:"not null"`
	Roles           StringList `json:"roles" gorm:"type:jsonb;not null"`
	Status          string     `json:"status" gorm:"size:20;not null;default:'PENDING'"`
	FirstName       string     `json:"first_name" gorm:"size:100"`
	LastName        string     `json:"last_name" gorm:"size:100"`
	BirthDate       *time.Time `json:"birth_date"`
	MobilePhone     string     `json:"mobile_phone" gorm:"size:20"`
	HasSetPassword  bool       `json:"has_set_password" gorm:"default:false"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	LastLoginIP     string     `json:"last_login_ip" gorm:"size:45"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsActive reports whether the user may authenticate. PENDING and BLOCKED
// users never pass, regardless of credential validity.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// RoleSet returns the effective role set, always including the base role.
func (u *User) RoleSet() StringList {
	if u.Roles.Contains(RoleUser) {
		return u.Roles
	}
	return append(StringList{RoleUser}, u.Roles...)
}

// SetStatus validates the transition target before assignment.
func (u *User) SetStatus(status string) error {
	switch status {
	case StatusPending, StatusActive, StatusBlocked:
		u.Status = status
		return nil
	default:
		return ErrInvalidStatus
	}
}
