package session

import (
	"testing"
	"time"

	inbox_errors "talentlink-inbox/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("dev-secret"))
	require.NoError(t, err)
	return token
}

func TestFromAccessToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":      "42",
		"username": "dana.reed",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	identity, err := FromAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, "dana.reed", identity.Username)
}

func TestFromAccessTokenWithoutUsername(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "7"})

	identity, err := FromAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.UserID)
	assert.Empty(t, identity.Username)
}

func TestFromAccessTokenRejectsBadInput(t *testing.T) {
	_, err := FromAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, inbox_errors.ErrUnauthorized)

	_, err = FromAccessToken(signedToken(t, jwt.MapClaims{"username": "no-subject"}))
	assert.ErrorIs(t, err, inbox_errors.ErrUnauthorized)

	_, err = FromAccessToken(signedToken(t, jwt.MapClaims{"sub": "dana"}))
	assert.ErrorIs(t, err, inbox_errors.ErrUnauthorized)
}
