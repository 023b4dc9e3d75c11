package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(AccessSubject{
		UserID:      7,
		NationalID:  "12345678",
		Name:        "Ana Torres",
		Roles:       []string{"Médico"},
		Permissions: []string{"history.apply"},
	}, testSecret, 15)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "12345678", claims.NationalID)
	assert.Equal(t, []string{"Médico"}, claims.Roles)
	assert.Equal(t, "7", claims.Subject)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(AccessSubject{UserID: 1}, testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(AccessSubject{UserID: 1}, testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "another-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateAccessToken("not-a-token", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(3, "token-id", testSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "token-id", claims.TokenID)
}
