package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func TestMatchErrorStatus(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing profile", ErrProfileNotFound, http.StatusNotFound, "profile_not_found"},
		{"missing user", ErrUserNotFound, http.StatusNotFound, "user_not_found"},
		{"wrapped store failure", fmt.Errorf("%w: dial tcp: refused", ErrStoreUnavailable), http.StatusServiceUnavailable, "store_unavailable"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "matching_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := matchErrorStatus(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantCode, code)
		})
	}
}

func authedRequest(t *testing.T, target string, userID int) *http.Request {
	t.Helper()
	setJWTSecret("test-secret")
	tokenStr, err := issueToken(userID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	return req
}

func TestMentorMatchesHandler(t *testing.T) {
	store := newFakeStore()
	store.add(menteeProfile(1), studentUser(1))
	store.add(mentorProfile(2), alumniUser(2))
	engine := newMatchEngine(store, nil, defaultPoolCap)
	handler := mentorMatchesHandler(engine, zap.NewNop())

	t.Run("OK", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, "/api/matching/mentors", 1))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body struct {
			Count   int     `json:"count"`
			Matches []Match `json:"matches"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		require.Len(t, body.Matches, 1)
		assert.Equal(t, 2, body.Matches[0].Profile.UserID)
		assert.Equal(t, 78, body.Matches[0].CompatibilityScore)
		assert.NotEmpty(t, body.Matches[0].MatchReasons)
	})

	t.Run("Requester Without Profile", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, "/api/matching/mentors", 99))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Store Down", func(t *testing.T) {
		store.poolErr = fmt.Errorf("%w: connection reset", ErrStoreUnavailable)
		defer func() { store.poolErr = nil }()

		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, "/api/matching/mentors", 1))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/matching/mentors", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSuggestionsHandler(t *testing.T) {
	store := newFakeStore()
	store.add(menteeProfile(1), studentUser(1))
	store.add(mentorProfile(2), alumniUser(2))
	engine := newMatchEngine(store, nil, defaultPoolCap)
	handler := suggestionsHandler(engine, zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, "/api/matching/suggestions", 1))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Suggestions Suggestions `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Suggestions.Mentors, 1)
	assert.Len(t, body.Suggestions.CareerMatches, 1)
}
