package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomToken(t *testing.T) {
	first, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.Len(t, first, 64) // hex doubles the byte count

	second, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEmailTokenCipher_RoundTrip(t *testing.T) {
	cipher := NewEmailTokenCipher("application-secret")

	token, err := cipher.Encrypt("someone@example.com")
	require.NoError(t, err)
	assert.NotContains(t, token, "@", "token must not expose the address")

	plain, err := cipher.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", plain)
}

// A random IV means the same address never encrypts to the same token.
func TestEmailTokenCipher_RandomIV(t *testing.T) {
	cipher := NewEmailTokenCipher("application-secret")

	first, err := cipher.Encrypt("someone@example.com")
	require.NoError(t, err)
	second, err := cipher.Encrypt("someone@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEmailTokenCipher_RejectsGarbage(t *testing.T) {
	cipher := NewEmailTokenCipher("application-secret")

	_, err := cipher.Decrypt("not-base64!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = cipher.Decrypt("dG9vc2hvcnQ")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestEmailTokenCipher_WrongKey(t *testing.T) {
	token, err := NewEmailTokenCipher("secret-one").Encrypt("someone@example.com")
	require.NoError(t, err)

	plain, err := NewEmailTokenCipher("secret-two").Decrypt(token)
	if err == nil {
		assert.NotEqual(t, "someone@example.com", plain)
	}
}
