package auth

import "time"

// BlacklistedToken records an access token invalidated before its natural
// expiry. The ledger expiry equals the token's own exp claim, so expired
// rows can be purged without affecting correctness.
type BlacklistedToken struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Token         string    `json:"token" gorm:"size:512;uniqueIndex;not null"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"not null;index"`
	BlacklistedAt time.Time `json:"blacklisted_at" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsExpired reports whether the underlying token has outlived its own exp.
func (t *BlacklistedToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}
