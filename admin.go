package main

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GET /api/admin/dashboard
func adminDashboardHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return requireRole(db, RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		var stats struct {
			TotalUsers           int `json:"totalUsers"`
			TotalAlumni          int `json:"totalAlumni"`
			TotalStudents        int `json:"totalStudents"`
			VerifiedAlumni       int `json:"verifiedAlumni"`
			PendingVerifications int `json:"pendingVerifications"`
		}

		err := db.QueryRowContext(r.Context(), `
			SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE role = 'alumni'),
				COUNT(*) FILTER (WHERE role = 'student'),
				COUNT(*) FILTER (WHERE role = 'alumni' AND is_verified = TRUE),
				COUNT(*) FILTER (WHERE role = 'alumni' AND verification_status = 'pending')
			FROM users
		`).Scan(&stats.TotalUsers, &stats.TotalAlumni, &stats.TotalStudents,
			&stats.VerifiedAlumni, &stats.PendingVerifications)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("loading dashboard stats", zap.Error(err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
	})
}

// POST /api/admin/verify/{id} - approve a pending alumni account
func verifyAlumniHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return requireRole(db, RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		targetID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		res, err := db.ExecContext(r.Context(), `
			UPDATE users
			SET is_verified = TRUE, verification_status = $2
			WHERE id = $1 AND role = 'alumni'
		`, targetID, VerificationApproved)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("verifying alumni", zap.Int("user_id", targetID), zap.Error(err))
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
	})
}
