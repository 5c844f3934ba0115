package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Donation records a completed contribution. Payment processing happens
// upstream; this endpoint only records the settled result, and each
// recorded donation feeds the donor's give-back counter.
type Donation struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Campaign  string    `json:"campaign,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// POST /api/donations
func recordDonationHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		var req Donation
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if req.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		if req.Currency == "" {
			req.Currency = "USD"
		}
		userID := r.Context().Value(userIDKey).(int)

		var id int
		err := withTx(r.Context(), db, func(tx *sql.Tx) error {
			if err := tx.QueryRow(`
				INSERT INTO donations (user_id, amount, currency, campaign)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, userID, req.Amount, req.Currency, req.Campaign).Scan(&id); err != nil {
				return err
			}
			if _, err := recordGiveBackActivity(tx, userID, ActivityDonation, 1); err != nil && err != ErrProfileNotFound {
				return err
			}
			return nil
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "donation_error")
			log.Error("recording donation", zap.Int("user_id", userID), zap.Error(err))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int{"id": id})
	})
}

// GET /api/donations/me
func myDonationsHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)

		rows, err := db.QueryContext(r.Context(), `
			SELECT id, user_id, amount, currency, COALESCE(campaign, ''), created_at
			FROM donations
			WHERE user_id = $1
			ORDER BY created_at DESC
		`, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("listing donations", zap.Error(err))
			return
		}
		defer rows.Close()

		donations := []Donation{}
		var total float64
		for rows.Next() {
			var d Donation
			if err := rows.Scan(&d.ID, &d.UserID, &d.Amount, &d.Currency, &d.Campaign, &d.CreatedAt); err != nil {
				continue
			}
			donations = append(donations, d)
			total += d.Amount
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":     len(donations),
			"total":     total,
			"donations": donations,
		})
	})
}
