package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateAccessToken(userID, testSecret, time.Minute)
	require.NoError(t, err)

	claims, err := VerifyToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Empty(t, claims.Purpose)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), testSecret, time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPurposeTokenCarriesPurpose(t *testing.T) {
	userID := uuid.New()

	token, err := GeneratePurposeToken(userID, PurposePasswordReset, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := VerifyToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, PurposePasswordReset, claims.Purpose)
	assert.Equal(t, userID, claims.UserID)
}

func TestDecodeWithoutVerify(t *testing.T) {
	userID := uuid.New()

	// Expired token still decodes; only the claims are needed for logout.
	token, err := GenerateAccessToken(userID, testSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := DecodeWithoutVerify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}
