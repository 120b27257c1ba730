package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/auth/token"
)

func TestSignAndParseAccess(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	raw, err := token.SignAccess("secret", userID, []string{"user"}, time.Hour, now)
	require.NoError(t, err)

	claims, err := token.ParseAccess("secret", raw)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{"user"}, claims.Roles)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	raw, err := token.SignAccess("secret", uuid.New(), nil, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = token.ParseAccess("other", raw)
	assert.ErrorIs(t, err, token.ErrInvalid)

	expired, err := token.SignAccess("secret", uuid.New(), nil, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = token.ParseAccess("secret", expired)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestSignRequiresSecret(t *testing.T) {
	_, err := token.SignAccess("", uuid.New(), nil, time.Hour, time.Now())
	assert.Error(t, err)
}
