package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateSessionToken(secret, "8c4d9a7e-session", time.Hour)
	require.NoError(t, err)

	id, err := ValidateSessionToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "8c4d9a7e-session", id)
}

func TestValidateSessionToken_Rejects(t *testing.T) {
	secret := []byte("test-secret")
	valid, err := GenerateSessionToken(secret, "s1", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateSessionToken(secret, "s1", -time.Minute)
	require.NoError(t, err)
	noSubject, err := GenerateSessionToken(secret, "", time.Hour)
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "s1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"wrong secret", []byte("other"), valid},
		{"expired", secret, expired},
		{"missing subject", secret, noSubject},
		{"other issuer", secret, foreign},
		{"garbage", secret, "not-a-token"},
		{"empty", secret, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSessionToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseSessionToken_IssuedAt(t *testing.T) {
	secret := []byte("test-secret")
	before := time.Now().Add(-time.Second)
	token, err := GenerateSessionToken(secret, "s1", time.Hour)
	require.NoError(t, err)

	id, issued, err := ParseSessionToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
	assert.True(t, issued.After(before))

	noIat, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "s1",
		Issuer:    sessionIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)
	_, issued, err = ParseSessionToken(secret, noIat)
	require.NoError(t, err)
	assert.True(t, issued.IsZero())
}
