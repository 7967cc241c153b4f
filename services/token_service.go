package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"jrg-backend/repositories"
	"jrg-backend/shared/database/models"
	"jrg-backend/shared/database/models/auth"
	utils "jrg-backend/shared/utils/auth"
)

var ErrInvalidOrExpired = errors.New("refresh token is invalid or expired")

// RefreshTokenStore is the persistence surface the token service needs.
type RefreshTokenStore interface {
	Create(token *auth.RefreshToken) error
	ConsumeActive(token string) (*auth.RefreshToken, error)
	Revoke(token string) error
	RevokeAllForUser(userID uint) error
}

// BlacklistStore is the revocation ledger surface.
type BlacklistStore interface {
	Add(token string, expiresAt time.Time) error
	Contains(token string) (bool, error)
}

// UserStore covers the user lookups the auth flow needs.
type UserStore interface {
	FindByEmail(email string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	RecordLogin(userID uint, ip string) error
	UpdatePassword(userID uint, hash string) error
}

// TokenPair is the login and refresh response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenService issues signed access tokens paired with opaque single-use
// refresh tokens, and maintains the revocation ledger.
type TokenService struct {
	jwt        *utils.JWTManager
	refresh    RefreshTokenStore
	blacklist  BlacklistStore
	users      UserStore
	refreshTTL time.Duration
}

func NewTokenService(jwt *utils.JWTManager, refresh RefreshTokenStore, blacklist BlacklistStore, users UserStore, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		jwt:        jwt,
		refresh:    refresh,
		blacklist:  blacklist,
		users:      users,
		refreshTTL: refreshTTL,
	}
}

// IssuePair mints an access token for the user and persists a fresh opaque
// refresh token alongside it.
func (s *TokenService) IssuePair(user *models.User, ip string) (*TokenPair, error) {
	accessToken, _, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.RoleSet())
	if err != nil {
		return nil, err
	}

	refreshValue, err := utils.GenerateRandomToken(32)
	if err != nil {
		return nil, err
	}

	record := auth.RefreshToken{
		UserID:      user.ID,
		Token:       refreshValue,
		ExpiresAt:   time.Now().Add(s.refreshTTL),
		CreatedByIP: ip,
	}
	if err := s.refresh.Create(&record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		ExpiresIn:    int64(s.jwt.TTL().Seconds()),
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token is
// consumed atomically, so under concurrent use exactly one caller gets a
// new pair and the rest get ErrInvalidOrExpired. Revoked, expired and
// unknown tokens are indistinguishable to callers; store failures are
// surfaced as-is so they do not masquerade as a rejected token.
func (s *TokenService) Rotate(refreshToken, ip string) (*TokenPair, error) {
	consumed, err := s.refresh.ConsumeActive(refreshToken)
	if errors.Is(err, repositories.ErrTokenNotFound) {
		return nil, ErrInvalidOrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}

	user, err := s.users.FindByID(consumed.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidOrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load token owner: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrInvalidOrExpired
	}

	return s.IssuePair(user, ip)
}

// Logout blacklists the presented access token until its natural expiry and
// revokes the optional refresh token. It never fails the caller: a token
// that cannot be decoded has nothing worth revoking, and ledger write
// failures are logged rather than surfaced.
func (s *TokenService) Logout(accessToken, refreshToken string) {
	if accessToken != "" {
		if expiresAt, err := s.jwt.DecodeExpiry(accessToken); err == nil {
			if err := s.blacklist.Add(accessToken, expiresAt); err != nil {
				log.Printf("❌ Failed to blacklist token: %v", err)
			}
		}
	}
	if refreshToken != "" {
		if err := s.refresh.Revoke(refreshToken); err != nil {
			log.Printf("❌ Failed to revoke refresh token: %v", err)
		}
	}
}

// RevokeUserSessions invalidates every refresh token a user holds.
func (s *TokenService) RevokeUserSessions(userID uint) error {
	return s.refresh.RevokeAllForUser(userID)
}

// IsBlacklisted reports whether the access token sits on the revocation
// ledger. Lookup errors deny access, a silent pass on a failing ledger
// would let revoked tokens through.
func (s *TokenService) IsBlacklisted(token string) bool {
	blacklisted, err := s.blacklist.Contains(token)
	if err != nil {
		log.Printf("❌ Blacklist lookup failed: %v", err)
		return true
	}
	return blacklisted
}
