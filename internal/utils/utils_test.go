package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func TestSessionTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)

	token, issued, err := manager.GenerateSessionToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := manager.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, issued.Exp, claims.Exp)
	assert.Equal(t, 3600, manager.SessionTTL())
}

func TestValidateSessionTokenRejects(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)

	foreign, _, err := NewJWTManager("another-secret-key-that-is-32-characters", time.Hour).GenerateSessionToken("user-1")
	require.NoError(t, err)

	expired, _, err := NewJWTManager(testSecret, -time.Minute).GenerateSessionToken("user-1")
	require.NoError(t, err)

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":     "id",
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
		"type":    "refresh",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not-a-jwt",
		"foreign secret": foreign,
		"expired":        expired,
		"wrong type":     wrongType,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := manager.ValidateSessionToken(token)
			assert.Error(t, err)
		})
	}
}

func TestFallbackUsername(t *testing.T) {
	assert.Equal(t, "dev@example.com", FallbackUsername("  Dev@Example.com ", "42"))
	assert.Equal(t, "hh_42", FallbackUsername("", "42"))
	assert.Equal(t, "hh_42", FallbackUsername("not-an-email", "42"))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.False(t, ValidateEmail("user@"))
	assert.False(t, ValidateEmail(""))
}
