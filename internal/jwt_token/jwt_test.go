package jwttoken

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer")
var userID = id.NewUserID()
var sessionID = id.NewSessionID()
var expiresIn = time.Hour

func Test_GenerateAccessToken(t *testing.T) {
	token, expiresAt, err := jwtService.GenerateAccessToken(userID, sessionID, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(expiresIn), expiresAt, time.Minute)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, sessionID.String(), claims.ID)

	sid, err := claims.SessionID()
	require.NoError(t, err)
	assert.Equal(t, sessionID, sid)
}

func Test_ValidateToken_Malformed(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, ErrTokenMalformed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_Expired(t *testing.T) {
	token, _, err := jwtService.GenerateAccessToken(userID, sessionID, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer")
	token, _, err := other.GenerateAccessToken(userID, sessionID, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func Test_ValidateToken_TamperedPayload(t *testing.T) {
	token, _, err := jwtService.GenerateAccessToken(userID, sessionID, expiresIn)
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[2] = strings.Repeat("A", len(parts[2]))

	_, err = jwtService.ValidateToken(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func Test_ParseIgnoringExpiry(t *testing.T) {
	t.Run("accepts expired token with valid signature", func(t *testing.T) {
		token, _, err := jwtService.GenerateAccessToken(userID, sessionID, -time.Hour)
		require.NoError(t, err)

		claims, err := jwtService.ParseIgnoringExpiry(token)
		require.NoError(t, err)
		assert.Equal(t, sessionID.String(), claims.ID)
	})

	t.Run("still rejects a forged signature", func(t *testing.T) {
		other := NewJWTService("another-key", "test-issuer")
		token, _, err := other.GenerateAccessToken(userID, sessionID, expiresIn)
		require.NoError(t, err)

		_, err = jwtService.ParseIgnoringExpiry(token)
		require.ErrorIs(t, err, ErrTokenInvalidSignature)
	})
}

func Test_WithClock(t *testing.T) {
	fixed := time.Now().Add(-2 * time.Hour)
	svc := NewJWTService("k", "iss", WithClock(func() time.Time { return fixed }))
	token, expiresAt, err := svc.GenerateAccessToken(userID, sessionID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(time.Hour).Unix(), expiresAt.Unix())

	_, err = svc.ValidateToken(token)
	require.NoError(t, err)

	_, err = NewJWTService("k", "iss").ValidateToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func Test_Adapter(t *testing.T) {
	token, _, err := jwtService.GenerateAccessToken(userID, sessionID, expiresIn)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.JTI)
}
