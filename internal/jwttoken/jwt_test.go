package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	service := New("test-signing-key", "launchpad", "launchpad-api")
	userID := uuid.New()
	orgID := uuid.New()

	token, err := service.GenerateAccessToken(userID, orgID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, orgID.String(), claims.OrganizationID)
}

func TestValidateExpiredToken(t *testing.T) {
	service := New("test-signing-key", "launchpad", "launchpad-api")

	token, err := service.GenerateAccessToken(uuid.New(), uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token has expired")
}

func TestValidateWrongKey(t *testing.T) {
	service := New("test-signing-key", "launchpad", "launchpad-api")
	other := New("another-key", "launchpad", "launchpad-api")

	token, err := service.GenerateAccessToken(uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	service := New("test-signing-key", "launchpad", "launchpad-api")

	_, err := service.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
