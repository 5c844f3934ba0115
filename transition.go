package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Student-to-alumni transition. Students whose graduation year has passed
// are moved to the alumni role; graduation is assumed to happen by June, so
// the current year counts only from June onward. Freshly transitioned
// alumni start unverified and pending review.

func shouldTransition(graduationYear int, now time.Time) bool {
	if graduationYear <= 0 {
		return false
	}
	if graduationYear < now.Year() {
		return true
	}
	return graduationYear == now.Year() && now.Month() >= time.June
}

// TransitionResult describes one transitioned account.
type TransitionResult struct {
	UserID         int    `json:"userId"`
	Email          string `json:"email"`
	GraduationYear int    `json:"graduationYear"`
}

// transitionStudents finds every student whose graduation has passed and
// flips their role to alumni inside a single transaction.
func transitionStudents(ctx context.Context, db *sql.DB, now time.Time, log *zap.Logger) ([]TransitionResult, error) {
	var transitions []TransitionResult

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT u.id, u.email, p.graduation_year
			FROM users u
			JOIN profiles p ON p.user_id = u.id
			WHERE u.role = 'student' AND p.graduation_year <= $1
			FOR UPDATE OF u
		`, now.Year())
		if err != nil {
			return err
		}
		defer rows.Close()

		var candidates []TransitionResult
		for rows.Next() {
			var t TransitionResult
			if err := rows.Scan(&t.UserID, &t.Email, &t.GraduationYear); err != nil {
				return err
			}
			if shouldTransition(t.GraduationYear, now) {
				candidates = append(candidates, t)
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, t := range candidates {
			_, err := tx.ExecContext(ctx, `
				UPDATE users
				SET role = 'alumni', is_verified = FALSE, verification_status = $2
				WHERE id = $1
			`, t.UserID, VerificationPending)
			if err != nil {
				return err
			}
			transitions = append(transitions, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range transitions {
		log.Info("transitioned student to alumni",
			zap.Int("user_id", t.UserID), zap.Int("graduation_year", t.GraduationYear))
	}
	return transitions, nil
}

// POST /api/admin/transition-students
func transitionStudentsHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return requireRole(db, RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		transitions, err := transitionStudents(r.Context(), db, time.Now(), log)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "transition_error")
			log.Error("transition job failed", zap.Error(err))
			return
		}
		if transitions == nil {
			transitions = []TransitionResult{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":       len(transitions),
			"transitions": transitions,
		})
	})
}
