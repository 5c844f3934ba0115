package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	setJWTSecret("test-secret")

	tokenStr, err := issueToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	userID, ok := parseUserIDFromJWT(tokenStr)
	assert.True(t, ok)
	assert.Equal(t, 42, userID)
}

func TestParseUserIDFromJWTRejects(t *testing.T) {
	setJWTSecret("test-secret")

	t.Run("Garbage", func(t *testing.T) {
		_, ok := parseUserIDFromJWT("not-a-token")
		assert.False(t, ok)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 7,
			"expires": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, ok := parseUserIDFromJWT(signed)
		assert.False(t, ok)
	})

	t.Run("Expired", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 7,
			"expires": time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString(jwtSecret)
		require.NoError(t, err)

		_, ok := parseUserIDFromJWT(signed)
		assert.False(t, ok)
	})

	t.Run("Missing User ID", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"expires": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(jwtSecret)
		require.NoError(t, err)

		_, ok := parseUserIDFromJWT(signed)
		assert.False(t, ok)
	})
}

func TestAuthenticateMiddleware(t *testing.T) {
	setJWTSecret("test-secret")

	var seenUserID int
	handler := authenticate(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = r.Context().Value(userIDKey).(int)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Bearer Header", func(t *testing.T) {
		tokenStr, err := issueToken(9)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 9, seenUserID)
	})

	t.Run("Token Query Parameter", func(t *testing.T) {
		tokenStr, err := issueToken(11)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/ws/messages?token="+tokenStr, nil)
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 11, seenUserID)
	})

	t.Run("No Credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
