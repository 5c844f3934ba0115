package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Event is a community event members can register for. Attendance feeds the
// give-back counter for alumni.
type Event struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	CreatedBy   int       `json:"createdBy"`
}

// GET /api/events
func listEventsHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, title, COALESCE(description, ''), COALESCE(location, ''), starts_at, created_by
			FROM events
			ORDER BY starts_at DESC
			LIMIT 100
		`)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("listing events", zap.Error(err))
			return
		}
		defer rows.Close()

		events := []Event{}
		for rows.Next() {
			var e Event
			if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.CreatedBy); err != nil {
				continue
			}
			events = append(events, e)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(events), "events": events})
	})
}

// POST /api/events (admin)
func createEventHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return requireRole(db, RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		var req Event
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if strings.TrimSpace(req.Title) == "" || req.StartsAt.IsZero() {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		var id int
		err := db.QueryRowContext(r.Context(), `
			INSERT INTO events (title, description, location, starts_at, created_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, req.Title, req.Description, req.Location, req.StartsAt, userID).Scan(&id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "event_save_error")
			log.Error("creating event", zap.Error(err))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int{"id": id})
	})
}

// eventAccruesGiveBack reports whether event attendance counts toward the
// registrant's give-back score. The score tracks alumni contributions back
// to the community; students attending events are consumers, not givers.
func eventAccruesGiveBack(role string) bool {
	return role == RoleAlumni
}

// POST /api/events/{id}/register
func registerForEventHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		eventID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		err = withTx(r.Context(), db, func(tx *sql.Tx) error {
			var exists bool
			if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return sql.ErrNoRows
			}

			res, err := tx.Exec(`
				INSERT INTO event_registrations (event_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, eventID, userID)
			if err != nil {
				return err
			}

			// First registration by an alumnus counts toward the give-back
			// score; repeats are idempotent and do not.
			if n, _ := res.RowsAffected(); n > 0 {
				var role string
				if err := tx.QueryRow(`SELECT role FROM users WHERE id = $1`, userID).Scan(&role); err != nil {
					return err
				}
				if eventAccruesGiveBack(role) {
					if _, err := recordGiveBackActivity(tx, userID, ActivityEvent, 1); err != nil && err != ErrProfileNotFound {
						return err
					}
				}
			}
			return nil
		})
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "registration_error")
			log.Error("registering for event", zap.Int("event_id", eventID), zap.Error(err))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"registered": true})
	})
}
