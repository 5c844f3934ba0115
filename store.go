package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Typed store errors. ErrProfileNotFound means the requester has no profile
// record; ErrStoreUnavailable wraps transient read failures the caller may
// retry. The engine itself never retries.
var (
	ErrProfileNotFound  = errors.New("profile_not_found")
	ErrUserNotFound     = errors.New("user_not_found")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// ProfileStore is the read-only collaborator the matching engine consumes.
// Eligibility filtering happens inside the candidate queries, so an
// ineligible profile never reaches the scorer.
type ProfileStore interface {
	// GetProfile returns the profile owned by userID, or ErrProfileNotFound.
	GetProfile(ctx context.Context, userID int) (*Profile, error)
	// MentorCandidates returns public, mentorship-available profiles,
	// excluding the requester, capped at limit.
	MentorCandidates(ctx context.Context, excludeUserID, limit int) ([]*Profile, error)
	// AlumniCandidates returns public profiles of verified alumni,
	// excluding the requester, capped at limit.
	AlumniCandidates(ctx context.Context, excludeUserID, limit int) ([]*Profile, error)
	// GetUser returns the identity summary (email, role, verification).
	GetUser(ctx context.Context, userID int) (*UserSummary, error)
}

type sqlProfileStore struct {
	db *sql.DB
}

func newProfileStore(db *sql.DB) *sqlProfileStore {
	return &sqlProfileStore{db: db}
}

const profileColumns = `
	user_id, first_name, last_name, graduation_year, degree,
	COALESCE(major, ''), COALESCE(current_title, ''), COALESCE(current_company, ''),
	COALESCE(industry, ''), COALESCE(country, ''), COALESCE(city, ''), COALESCE(bio, ''),
	skills, mentorship_areas, COALESCE(profile_picture, ''),
	is_available_for_mentorship, is_public, giveback_score`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var skills, areas []byte
	err := row.Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.GraduationYear, &p.Degree,
		&p.Major, &p.CurrentRole, &p.CurrentCompany,
		&p.Industry, &p.Country, &p.City, &p.Bio,
		&skills, &areas, &p.ProfilePicture,
		&p.IsAvailableForMentorship, &p.IsPublic, &p.GiveBackScore,
	)
	if err != nil {
		return nil, err
	}
	p.Skills = parseStringArray(skills)
	p.MentorshipAreas = parseStringArray(areas)
	return &p, nil
}

// parseStringArray decodes a jsonb string array, treating NULL or malformed
// values as empty.
func parseStringArray(raw []byte) []string {
	result := []string{}
	if len(raw) == 0 {
		return result
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return []string{}
	}
	return result
}

func (s *sqlProfileStore) GetProfile(ctx context.Context, userID int) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return p, nil
}

func (s *sqlProfileStore) MentorCandidates(ctx context.Context, excludeUserID, limit int) ([]*Profile, error) {
	// ORDER BY user_id keeps retrieval order stable across identical pool
	// snapshots, which is the tiebreak for equal scores downstream.
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE is_public = TRUE
		  AND is_available_for_mentorship = TRUE
		  AND user_id <> $1
		ORDER BY user_id
		LIMIT $2
	`, excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return collectProfiles(rows)
}

func (s *sqlProfileStore) AlumniCandidates(ctx context.Context, excludeUserID, limit int) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles p
		WHERE p.is_public = TRUE
		  AND p.user_id <> $1
		  AND EXISTS (
		      SELECT 1 FROM users u
		      WHERE u.id = p.user_id AND u.role = 'alumni' AND u.is_verified = TRUE
		  )
		ORDER BY p.user_id
		LIMIT $2
	`, excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return collectProfiles(rows)
}

func collectProfiles(rows *sql.Rows) ([]*Profile, error) {
	defer rows.Close()
	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return profiles, nil
}

func (s *sqlProfileStore) GetUser(ctx context.Context, userID int) (*UserSummary, error) {
	var u UserSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, role, is_verified FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Email, &u.Role, &u.IsVerified)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &u, nil
}
