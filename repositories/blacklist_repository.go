package repositories

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jrg-backend/shared/database/models/auth"
)

// BlacklistRepository is the persisted revocation ledger for access tokens.
type BlacklistRepository struct {
	db *gorm.DB
}

func NewBlacklistRepository(db *gorm.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add records a revoked access token until expiresAt. Re-adding the same
// token is a no-op thanks to the unique index, so double logout is safe.
func (r *BlacklistRepository) Add(token string, expiresAt time.Time) error {
	entry := auth.BlacklistedToken{
		Token:         token,
		ExpiresAt:     expiresAt,
		BlacklistedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

// Contains reports whether token has an unexpired ledger entry.
func (r *BlacklistRepository) Contains(token string) (bool, error) {
	var count int64
	err := r.db.Model(&auth.BlacklistedToken{}).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpired drops entries whose tokens have expired on their own. An
// expired JWT fails validation anyway, the row is just dead weight.
func (r *BlacklistRepository) PurgeExpired() (int64, error) {
	result := r.db.Where("expires_at <= ?", time.Now()).Delete(&auth.BlacklistedToken{})
	return result.RowsAffected, result.Error
}
