package models

import "time"

// Activity log event kinds. Security events are recorded without an
// authenticated subject.
const (
	ActivityLogin                = "login"
	ActivityLoginFailed          = "login_failed"
	ActivityLogout               = "logout"
	ActivityPasswordChange       = "password_change"
	ActivityPasswordReset        = "password_reset"
	ActivityPasswordResetRequest = "password_reset_request"
	ActivityAccountActivation    = "account_activation"
	ActivityProfileView          = "profile_view"
	ActivityProfileUpdate        = "profile_update"

	ActivitySecuritySpam         = "security_spam"
	ActivitySecurityRateLimit    = "security_rate_limit"
	ActivitySecurityHoneypot     = "security_honeypot"
	ActivitySecurityCSRF         = "security_csrf"
	ActivitySecurityRecaptcha    = "security_recaptcha"
	ActivitySecurityInvalidInput = "security_invalid_input"
	ActivitySecuritySuspicious   = "security_suspicious"
)

// ActivityLog is append-only; rows are never updated after creation.
type ActivityLog struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:50;not null;index"`
	Description string    `json:"description" gorm:"size:255;not null"`
	UserID      *uint     `json:"user_id" gorm:"index"`
	IPAddress   string    `json:"ip_address" gorm:"size:45"`
	UserAgent   string    `json:"user_agent" gorm:"size:255"`
	Metadata    JSONMap   `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at"`

	User *User `json:"-" gorm:"foreignKey:UserID"`
}
