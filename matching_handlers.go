package main

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Matching endpoints. Each request is a self-contained computation: fetch,
// score, rank, explain, respond. Transient store failures surface as 503 so
// callers can retry with backoff; the engine never retries internally.

func matchErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "matching_error"
	}
}

// GET /api/matching/mentors?limit=
func mentorMatchesHandler(engine *MatchEngine, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)
		limit := queryInt(r, "limit", defaultMatchLimit)

		matches, err := engine.FindMentorMatches(r.Context(), userID, limit)
		if err != nil {
			status, code := matchErrorStatus(err)
			log.Warn("mentor matching failed", zap.Int("user_id", userID), zap.Error(err))
			writeError(w, status, code)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":   len(matches),
			"matches": matches,
		})
	})
}

// GET /api/matching/career?limit=
func careerMatchesHandler(engine *MatchEngine, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)
		limit := queryInt(r, "limit", defaultMatchLimit)

		matches, err := engine.FindCareerMatches(r.Context(), userID, limit)
		if err != nil {
			status, code := matchErrorStatus(err)
			log.Warn("career matching failed", zap.Int("user_id", userID), zap.Error(err))
			writeError(w, status, code)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":   len(matches),
			"matches": matches,
		})
	})
}

// GET /api/matching/suggestions
func suggestionsHandler(engine *MatchEngine, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)

		suggestions, err := engine.Suggestions(r.Context(), userID)
		if err != nil {
			status, code := matchErrorStatus(err)
			log.Warn("suggestions failed", zap.Int("user_id", userID), zap.Error(err))
			writeError(w, status, code)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
	})
}
