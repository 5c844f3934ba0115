package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Give-back activity types.
const (
	ActivityMentorship = "mentorship"
	ActivityReferral   = "referral"
	ActivityTalk       = "talk"
	ActivityDonation   = "donation"
	ActivityEvent      = "event"
)

// Points per activity unit. The give-back score is a cumulative community
// contribution counter shown next to profiles; it is never an input to the
// compatibility rubric.
var giveBackPoints = map[string]int{
	ActivityMentorship: 5,  // per hour
	ActivityReferral:   15, // per referral
	ActivityTalk:       25, // per talk or webinar
	ActivityDonation:   10, // per completed donation
	ActivityEvent:      5,  // per event attended
}

// applyGiveBackActivity is a pure reducer: old breakdown + activity ->
// new breakdown. The derived score is recomputed separately.
func applyGiveBackActivity(b GiveBackBreakdown, activity string, amount int) (GiveBackBreakdown, error) {
	switch activity {
	case ActivityMentorship:
		b.MentorshipHours += amount
	case ActivityReferral:
		b.ReferralsGiven += amount
	case ActivityTalk:
		b.TalksGiven += amount
	case ActivityDonation:
		b.DonationsCount += amount
	case ActivityEvent:
		b.EventsAttended += amount
	default:
		return b, fmt.Errorf("unknown give-back activity %q", activity)
	}
	return b, nil
}

// giveBackScore derives the display score from a breakdown, floored at 0.
func giveBackScore(b GiveBackBreakdown) int {
	score := b.MentorshipHours*giveBackPoints[ActivityMentorship] +
		b.ReferralsGiven*giveBackPoints[ActivityReferral] +
		b.TalksGiven*giveBackPoints[ActivityTalk] +
		b.DonationsCount*giveBackPoints[ActivityDonation] +
		b.EventsAttended*giveBackPoints[ActivityEvent]
	if score < 0 {
		return 0
	}
	return score
}

// recordGiveBackActivity runs the reducer against the stored breakdown and
// persists breakdown + recomputed score atomically.
func recordGiveBackActivity(tx *sql.Tx, userID int, activity string, amount int) (int, error) {
	var raw []byte
	err := tx.QueryRow(`SELECT giveback_breakdown FROM profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, ErrProfileNotFound
	} else if err != nil {
		return 0, err
	}

	var breakdown GiveBackBreakdown
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &breakdown)
	}

	breakdown, err = applyGiveBackActivity(breakdown, activity, amount)
	if err != nil {
		return 0, err
	}
	score := giveBackScore(breakdown)

	updated, _ := json.Marshal(breakdown)
	_, err = tx.Exec(`
		UPDATE profiles SET giveback_breakdown = $2, giveback_score = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, updated, score)
	if err != nil {
		return 0, err
	}
	return score, nil
}

// POST /api/giveback/activity  {"userId":1,"activity":"talk","amount":1}
// Admin only: activities are recorded by the owning services (events,
// donations) or by staff, not self-reported.
func recordActivityHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return requireRole(db, RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   int    `json:"userId"`
			Activity string `json:"activity"`
			Amount   int    `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if req.Amount == 0 {
			req.Amount = 1
		}

		var score int
		err := withTx(r.Context(), db, func(tx *sql.Tx) error {
			var err error
			score, err = recordGiveBackActivity(tx, req.UserID, req.Activity, req.Amount)
			return err
		})
		if err == ErrProfileNotFound {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		} else if err != nil {
			writeError(w, http.StatusBadRequest, "activity_error")
			log.Warn("recording give-back activity", zap.Int("user_id", req.UserID), zap.Error(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"giveBackScore": score})
	})
}

// GET /api/giveback/me
func myGiveBackHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)
		var score int
		var raw []byte
		err := db.QueryRow(`SELECT giveback_score, giveback_breakdown FROM profiles WHERE user_id = $1`, userID).
			Scan(&score, &raw)
		if err != nil {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		}
		var breakdown GiveBackBreakdown
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &breakdown)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"score": score, "breakdown": breakdown})
	})
}

// GET /api/giveback/top?limit=
func topContributorsHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 10)
		if limit < 1 || limit > 50 {
			limit = 10
		}

		rows, err := db.QueryContext(r.Context(), `
			SELECT user_id, first_name, last_name, COALESCE(current_title, ''),
			       COALESCE(current_company, ''), giveback_score
			FROM profiles
			WHERE is_public = TRUE
			ORDER BY giveback_score DESC, user_id
			LIMIT $1
		`, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("listing top contributors", zap.Error(err))
			return
		}
		defer rows.Close()

		type contributor struct {
			UserID         int    `json:"userId"`
			FirstName      string `json:"firstName"`
			LastName       string `json:"lastName"`
			CurrentRole    string `json:"currentRole,omitempty"`
			CurrentCompany string `json:"currentCompany,omitempty"`
			GiveBackScore  int    `json:"giveBackScore"`
		}
		contributors := []contributor{}
		for rows.Next() {
			var c contributor
			if err := rows.Scan(&c.UserID, &c.FirstName, &c.LastName, &c.CurrentRole, &c.CurrentCompany, &c.GiveBackScore); err != nil {
				continue
			}
			contributors = append(contributors, c)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"contributors": contributors})
	})
}
