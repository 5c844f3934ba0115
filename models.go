package main

// Member roles. Role and verification state live on the users table and are
// consumed read-only by the matching engine.
const (
	RoleStudent = "student"
	RoleAlumni  = "alumni"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// Verification states for alumni accounts.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// UserSummary is the slice of the user record attached to profile payloads.
type UserSummary struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

// Profile is a member's alumni-network profile. It owns a one-directional
// reference to its user (UserID); the reverse lookup is a store-level join.
type Profile struct {
	UserID                   int      `json:"userId"`
	FirstName                string   `json:"firstName"`
	LastName                 string   `json:"lastName"`
	GraduationYear           int      `json:"graduationYear"`
	Degree                   string   `json:"degree"`
	Major                    string   `json:"major,omitempty"`
	CurrentRole              string   `json:"currentRole,omitempty"`
	CurrentCompany           string   `json:"currentCompany,omitempty"`
	Industry                 string   `json:"industry,omitempty"`
	Country                  string   `json:"country,omitempty"`
	City                     string   `json:"city,omitempty"`
	Bio                      string   `json:"bio,omitempty"`
	Skills                   []string `json:"skills"`
	MentorshipAreas          []string `json:"mentorshipAreas,omitempty"`
	ProfilePicture           string   `json:"profilePicture,omitempty"`
	IsAvailableForMentorship bool     `json:"isAvailableForMentorship"`
	IsPublic                 bool     `json:"isPublic"`
	GiveBackScore            int      `json:"giveBackScore"`

	// Filled from the users table for surfaced candidates, never persisted
	// on the profile itself.
	User *UserSummary `json:"user,omitempty"`
}

// Match is the derived, non-persisted result of scoring one candidate
// against a requester. Constructed per request, discarded after response.
type Match struct {
	Profile            *Profile `json:"profile"`
	CompatibilityScore int      `json:"compatibilityScore"`
	MatchReasons       []string `json:"matchReasons"`
}

// Suggestions is the role-gated suggestion payload.
type Suggestions struct {
	Mentors       []Match `json:"mentors"`
	CareerMatches []Match `json:"careerMatches"`
}

// GiveBackBreakdown tracks per-activity contribution counters. The derived
// score is informational only and never feeds the matching rubric.
type GiveBackBreakdown struct {
	MentorshipHours int `json:"mentorshipHours"`
	ReferralsGiven  int `json:"referralsGiven"`
	TalksGiven      int `json:"talksGiven"`
	DonationsCount  int `json:"donationsCount"`
	EventsAttended  int `json:"eventsAttended"`
}
