package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := NewJWTManager("unit-test-secret", 30*time.Minute, "jrg-backend")

	token, expiresAt, err := manager.GenerateAccessToken(42, "user@example.com", []string{"ROLE_USER", "ROLE_ADMIN"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, claims.Roles)
	assert.Equal(t, "jrg-backend", claims.Issuer)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-one", time.Minute, "jrg-backend")
	verifier := NewJWTManager("secret-two", time.Minute, "jrg-backend")

	token, _, err := issuer.GenerateAccessToken(1, "a@b.co", nil)
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager("unit-test-secret", -time.Minute, "jrg-backend")

	token, _, err := manager.GenerateAccessToken(1, "a@b.co", nil)
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_GarbageToken(t *testing.T) {
	manager := NewJWTManager("unit-test-secret", time.Minute, "jrg-backend")

	_, err := manager.ValidateAccessToken("not.a.jwt")
	assert.Error(t, err)
}

// DecodeExpiry must work on tokens that are already expired, blacklisting
// at logout needs the exp claim regardless of validity.
func TestJWTManager_DecodeExpiryOnExpiredToken(t *testing.T) {
	manager := NewJWTManager("unit-test-secret", -time.Hour, "jrg-backend")

	token, _, err := manager.GenerateAccessToken(1, "a@b.co", nil)
	require.NoError(t, err)

	expiresAt, err := manager.DecodeExpiry(token)
	require.NoError(t, err)
	assert.True(t, expiresAt.Before(time.Now()))
}
