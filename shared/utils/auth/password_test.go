package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_ProducesPHCFormat(t *testing.T) {
	hash, err := HashPassword("correct horse battery 1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "hash should be PHC-encoded argon2id, got %q", hash)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	first, err := HashPassword("same password 1")
	require.NoError(t, err)
	second, err := HashPassword("same password 1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword("s3cret-password", hash))
	assert.ErrorIs(t, VerifyPassword("wrong-password1", hash), ErrPasswordMismatch)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	err := VerifyPassword("anything1", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHashFormat)

	err = VerifyPassword("anything1", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
}
