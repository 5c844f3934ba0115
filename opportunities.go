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

// Opportunity types and lifecycle states.
var (
	opportunityTypes = map[string]bool{
		"job": true, "internship": true, "referral": true,
		"startup": true, "collaboration": true,
	}
	opportunityStatuses = map[string]bool{
		"open": true, "closed": true, "filled": true,
	}
)

const maxOpportunityDescription = 2000

// Opportunity is a job-board posting by a verified alumnus. Applications
// live in their own table, keyed by (opportunity, applicant).
type Opportunity struct {
	ID                  int        `json:"id"`
	Title               string     `json:"title"`
	Type                string     `json:"type"`
	Description         string     `json:"description"`
	Company             string     `json:"company"`
	Location            string     `json:"location,omitempty"`
	IsRemote            bool       `json:"isRemote"`
	Requirements        []string   `json:"requirements"`
	Skills              []string   `json:"skills"`
	SalaryMin           float64    `json:"salaryMin,omitempty"`
	SalaryMax           float64    `json:"salaryMax,omitempty"`
	SalaryCurrency      string     `json:"salaryCurrency,omitempty"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	ApplicationLink     string     `json:"applicationLink,omitempty"`
	Status              string     `json:"status"`
	PostedBy            int        `json:"postedBy"`
	Views               int        `json:"views"`
	CreatedAt           time.Time  `json:"createdAt"`

	// Filled from the users table when the posting is surfaced.
	Poster *UserSummary `json:"poster,omitempty"`
}

// OpportunityApplication is one member's application to a posting.
type OpportunityApplication struct {
	ApplicantID int       `json:"applicantId"`
	Status      string    `json:"status"` // pending | reviewing | accepted | rejected
	Notes       string    `json:"notes,omitempty"`
	AppliedAt   time.Time `json:"appliedAt"`
}

func validateOpportunityInput(o *Opportunity) string {
	if strings.TrimSpace(o.Title) == "" {
		return "title_required"
	}
	if !opportunityTypes[o.Type] {
		return "invalid_type"
	}
	if strings.TrimSpace(o.Description) == "" {
		return "description_required"
	}
	if len(o.Description) > maxOpportunityDescription {
		return "description_too_long"
	}
	if strings.TrimSpace(o.Company) == "" {
		return "company_required"
	}
	if o.Status != "" && !opportunityStatuses[o.Status] {
		return "invalid_status"
	}
	return ""
}

const opportunityColumns = `
	id, title, type, description, company, COALESCE(location, ''), is_remote,
	requirements, skills, COALESCE(salary_min, 0), COALESCE(salary_max, 0),
	COALESCE(salary_currency, ''), application_deadline,
	COALESCE(application_link, ''), status, posted_by, views, created_at`

func scanOpportunity(row rowScanner) (*Opportunity, error) {
	var o Opportunity
	var requirements, skills []byte
	var deadline sql.NullTime
	err := row.Scan(
		&o.ID, &o.Title, &o.Type, &o.Description, &o.Company, &o.Location, &o.IsRemote,
		&requirements, &skills, &o.SalaryMin, &o.SalaryMax,
		&o.SalaryCurrency, &deadline,
		&o.ApplicationLink, &o.Status, &o.PostedBy, &o.Views, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Requirements = parseStringArray(requirements)
	o.Skills = parseStringArray(skills)
	if deadline.Valid {
		o.ApplicationDeadline = &deadline.Time
	}
	return &o, nil
}

// GET /api/opportunities?type=&status=&isRemote=true&page=&limit=
func listOpportunitiesHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		where := []string{"TRUE"}
		args := []interface{}{}

		addFilter := func(clause string, value interface{}) {
			args = append(args, value)
			where = append(where, fmt.Sprintf(clause, len(args)))
		}

		q := r.URL.Query()
		if v := q.Get("type"); v != "" {
			addFilter("type = $%d", v)
		}
		if v := q.Get("status"); v != "" {
			addFilter("status = $%d", v)
		}
		if q.Get("isRemote") == "true" {
			where = append(where, "is_remote = TRUE")
		}

		limit := queryInt(r, "limit", 20)
		if limit < 1 || limit > 100 {
			limit = 20
		}
		page := queryInt(r, "page", 1)
		if page < 1 {
			page = 1
		}

		condition := strings.Join(where, " AND ")

		var total int
		if err := db.QueryRowContext(r.Context(),
			`SELECT COUNT(*) FROM opportunities WHERE `+condition, args...).Scan(&total); err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("counting opportunities", zap.Error(err))
			return
		}

		query := `SELECT ` + opportunityColumns + `
			FROM opportunities WHERE ` + condition + `
			ORDER BY created_at DESC, id DESC
			LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa((page-1)*limit)

		rows, err := db.QueryContext(r.Context(), query, args...)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("listing opportunities", zap.Error(err))
			return
		}
		defer rows.Close()

		opportunities := []*Opportunity{}
		for rows.Next() {
			o, err := scanOpportunity(rows)
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, "store_unavailable")
				return
			}
			opportunities = append(opportunities, o)
		}

		// Poster summaries through the request-scoped batch loader, loads
		// issued before any thunk resolves.
		if loaders := loadersFromContext(r.Context()); loaders != nil {
			thunks := make([]dataloader.Thunk[*UserSummary], len(opportunities))
			for i, o := range opportunities {
				thunks[i] = loaders.Users.Load(r.Context(), o.PostedBy)
			}
			for i, o := range opportunities {
				if u, err := thunks[i](); err == nil {
					o.Poster = u
				}
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":         len(opportunities),
			"total":         total,
			"page":          page,
			"pages":         (total + limit - 1) / limit,
			"opportunities": opportunities,
		})
	})
}

// GET /api/opportunities/{id} - the read also counts a view
func getOpportunityHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		oppID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		requesterID := r.Context().Value(userIDKey).(int)

		row := db.QueryRowContext(r.Context(), `
			UPDATE opportunities SET views = views + 1 WHERE id = $1
			RETURNING `+opportunityColumns, oppID)
		o, err := scanOpportunity(row)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Error("loading opportunity", zap.Int("opportunity_id", oppID), zap.Error(err))
			return
		}

		if loaders := loadersFromContext(r.Context()); loaders != nil {
			if u, err := loaders.Users.Load(r.Context(), o.PostedBy)(); err == nil {
				o.Poster = u
			}
		}

		payload := map[string]interface{}{"opportunity": o}

		// Applications are visible to the poster only.
		if requesterID == o.PostedBy {
			rows, err := db.QueryContext(r.Context(), `
				SELECT applicant_id, status, COALESCE(notes, ''), applied_at
				FROM opportunity_applications
				WHERE opportunity_id = $1
				ORDER BY applied_at
			`, oppID)
			if err == nil {
				defer rows.Close()
				applications := []OpportunityApplication{}
				for rows.Next() {
					var a OpportunityApplication
					if err := rows.Scan(&a.ApplicantID, &a.Status, &a.Notes, &a.AppliedAt); err != nil {
						continue
					}
					applications = append(applications, a)
				}
				payload["applications"] = applications
			}
		}

		writeJSON(w, http.StatusOK, payload)
	})
}

// POST /api/opportunities (verified alumni or admin)
func createOpportunityHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return requireVerified(db, func(w http.ResponseWriter, r *http.Request) {
		var req Opportunity
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if req.Status == "" {
			req.Status = "open"
		}
		if msg := validateOpportunityInput(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		if req.Requirements == nil {
			req.Requirements = []string{}
		}
		if req.Skills == nil {
			req.Skills = []string{}
		}
		requirementsJSON, _ := json.Marshal(req.Requirements)
		skillsJSON, _ := json.Marshal(req.Skills)

		var id int
		err := db.QueryRowContext(r.Context(), `
			INSERT INTO opportunities (
				title, type, description, company, location, is_remote,
				requirements, skills, salary_min, salary_max, salary_currency,
				application_deadline, application_link, status, posted_by
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8,
				NULLIF($9, 0), NULLIF($10, 0), NULLIF($11, ''),
				$12, $13, $14, $15
			)
			RETURNING id
		`,
			req.Title, req.Type, req.Description, req.Company, req.Location, req.IsRemote,
			requirementsJSON, skillsJSON, req.SalaryMin, req.SalaryMax, req.SalaryCurrency,
			req.ApplicationDeadline, req.ApplicationLink, req.Status, userID,
		).Scan(&id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "opportunity_save_error")
			log.Error("creating opportunity", zap.Error(err))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int{"id": id})
	})
}

// POST /api/opportunities/{id}/apply  {"notes":"..."}
func applyToOpportunityHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		oppID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		var req struct {
			Notes string `json:"notes"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		var applied bool
		err = withTx(r.Context(), db, func(tx *sql.Tx) error {
			var status string
			err := tx.QueryRow(`SELECT status FROM opportunities WHERE id = $1 FOR UPDATE`, oppID).Scan(&status)
			if err != nil {
				return err
			}
			if status != "open" {
				return errOpportunityClosed
			}

			res, err := tx.Exec(`
				INSERT INTO opportunity_applications (opportunity_id, applicant_id, notes)
				VALUES ($1, $2, NULLIF($3, ''))
				ON CONFLICT DO NOTHING
			`, oppID, userID, req.Notes)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			applied = n > 0
			return nil
		})
		switch {
		case err == sql.ErrNoRows:
			writeError(w, http.StatusNotFound, "not_found")
		case err == errOpportunityClosed:
			writeError(w, http.StatusBadRequest, "not_accepting_applications")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "application_error")
			log.Error("applying to opportunity", zap.Int("opportunity_id", oppID), zap.Error(err))
		case !applied:
			writeError(w, http.StatusBadRequest, "already_applied")
		default:
			writeJSON(w, http.StatusCreated, map[string]bool{"applied": true})
		}
	})
}

var errOpportunityClosed = fmt.Errorf("opportunity not accepting applications")
