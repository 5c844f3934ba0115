package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/graph-gophers/dataloader/v7"
	"go.uber.org/zap"
)

// Profile schema validation happens here at the store boundary; the scorer
// downstream assumes a well-formed record and only guards against absent
// optional fields.
func validateProfileInput(p *Profile) string {
	if strings.TrimSpace(p.FirstName) == "" {
		return "first_name_required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		return "last_name_required"
	}
	if strings.TrimSpace(p.Degree) == "" {
		return "degree_required"
	}
	maxYear := time.Now().Year() + 5
	if p.GraduationYear < 1950 || p.GraduationYear > maxYear {
		return "invalid_graduation_year"
	}
	return ""
}

// PUT /api/profiles/me
func upsertProfileHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		var req Profile
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if msg := validateProfileInput(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		if req.Skills == nil {
			req.Skills = []string{}
		}
		if req.MentorshipAreas == nil {
			req.MentorshipAreas = []string{}
		}
		skillsJSON, _ := json.Marshal(req.Skills)
		areasJSON, _ := json.Marshal(req.MentorshipAreas)

		_, err := db.Exec(`
			INSERT INTO profiles (
				user_id, first_name, last_name, graduation_year, degree, major,
				current_title, current_company, industry, country, city, bio,
				skills, mentorship_areas, profile_picture,
				is_available_for_mentorship, is_public
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
			)
			ON CONFLICT (user_id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				graduation_year = EXCLUDED.graduation_year,
				degree = EXCLUDED.degree,
				major = EXCLUDED.major,
				current_title = EXCLUDED.current_title,
				current_company = EXCLUDED.current_company,
				industry = EXCLUDED.industry,
				country = EXCLUDED.country,
				city = EXCLUDED.city,
				bio = EXCLUDED.bio,
				skills = EXCLUDED.skills,
				mentorship_areas = EXCLUDED.mentorship_areas,
				profile_picture = EXCLUDED.profile_picture,
				is_available_for_mentorship = EXCLUDED.is_available_for_mentorship,
				is_public = EXCLUDED.is_public,
				updated_at = NOW()
		`,
			userID, req.FirstName, req.LastName, req.GraduationYear, req.Degree, req.Major,
			req.CurrentRole, req.CurrentCompany, req.Industry, req.Country, req.City, req.Bio,
			skillsJSON, areasJSON, req.ProfilePicture,
			req.IsAvailableForMentorship, req.IsPublic,
		)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "profile_save_error")
			log.Error("saving profile", zap.Int("user_id", userID), zap.Error(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// GET /api/profiles/me
func myProfileHandler(store ProfileStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)
		profile, err := store.GetProfile(r.Context(), userID)
		if err != nil {
			status, code := matchErrorStatus(err)
			writeError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
	})
}

// GET /api/profiles/{id} - public profiles only, unless it's your own
func getProfileHandler(store ProfileStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		targetID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		requesterID := r.Context().Value(userIDKey).(int)

		profile, err := store.GetProfile(r.Context(), targetID)
		if err != nil {
			status, code := matchErrorStatus(err)
			writeError(w, status, code)
			return
		}
		if !profile.IsPublic && targetID != requesterID {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
	})
}

// GET /api/profiles?graduationYear=&industry=&country=&skills=&mentors=true&page=&limit=
func listProfilesHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		where := []string{"is_public = TRUE"}
		args := []interface{}{}

		addFilter := func(clause string, value interface{}) {
			args = append(args, value)
			where = append(where, fmt.Sprintf(clause, len(args)))
		}

		q := r.URL.Query()
		if v := q.Get("graduationYear"); v != "" {
			if year, err := strconv.Atoi(v); err == nil {
				addFilter("graduation_year = $%d", year)
			}
		}
		if v := q.Get("industry"); v != "" {
			addFilter("industry = $%d", v)
		}
		if v := q.Get("country"); v != "" {
			addFilter("country = $%d", v)
		}
		if v := q.Get("skills"); v != "" {
			// jsonb containment on the skills array
			skillJSON, _ := json.Marshal([]string{v})
			addFilter("skills @> $%d", string(skillJSON))
		}
		if q.Get("mentors") == "true" {
			where = append(where, "is_available_for_mentorship = TRUE")
		}

		limit := queryInt(r, "limit", 20)
		if limit < 1 || limit > 100 {
			limit = 20
		}
		page := queryInt(r, "page", 1)
		if page < 1 {
			page = 1
		}

		query := `SELECT ` + profileColumns + `
			FROM profiles WHERE ` + strings.Join(where, " AND ") + `
			ORDER BY created_at DESC, user_id DESC
			LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa((page-1)*limit)

		rows, err := db.QueryContext(r.Context(), query, args...)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("listing profiles", zap.Error(err))
			return
		}
		profiles, err := collectProfiles(rows)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "store_unavailable")
			return
		}
		if profiles == nil {
			profiles = []*Profile{}
		}

		// Attach identity summaries through the request-scoped batch loader.
		// All loads go out before the first thunk resolves, so one page of
		// profiles costs one users query.
		if loaders := loadersFromContext(r.Context()); loaders != nil {
			thunks := make([]dataloader.Thunk[*UserSummary], len(profiles))
			for i, p := range profiles {
				thunks[i] = loaders.Users.Load(r.Context(), p.UserID)
			}
			for i, p := range profiles {
				if u, err := thunks[i](); err == nil {
					p.User = u
				}
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":    len(profiles),
			"page":     page,
			"profiles": profiles,
		})
	})
}
