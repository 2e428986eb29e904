package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerAccessToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "cashier@clinic.test", []string{"staff"}, []string{"manage-vouchers"})
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "cashier@clinic.test", claims.Email)
	assert.Equal(t, []string{"manage-vouchers"}, claims.Permissions)
}

func TestJWTManagerRejectsForeignSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Minute, time.Hour)
	verifier := NewJWTManager("secret-b", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.New(), "a@b.c", nil, nil)
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManagerExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateRefreshToken(uuid.New())
	require.NoError(t, err)

	_, err = m.ValidateRefreshToken(token)
	assert.Error(t, err)
}

func TestJWTManagerRefreshToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateRefreshToken(userID)
	require.NoError(t, err)

	got, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
