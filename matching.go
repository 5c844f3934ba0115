package main

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"go.uber.org/zap"
)

// MatchPurpose selects the scoring rubric and eligibility filter.
type MatchPurpose string

const (
	// PurposeMentorship pairs a mentee with prospective mentors.
	PurposeMentorship MatchPurpose = "mentor-mentee"
	// PurposeCareer pairs a student with career-aligned verified alumni.
	PurposeCareer MatchPurpose = "career-alignment"
)

const (
	maxScore             = 100
	defaultMatchLimit    = 10
	suggestionLimit      = 5
	maxMatchLimit        = 50
	maxSharedSkillsShown = 3
	storeTimeout         = 5 * time.Second
)

// matchWeights is the rubric for one purpose. Keeping the weights in one
// table per purpose makes them inspectable and tunable without touching the
// scoring code.
type matchWeights struct {
	Industry      float64
	Skills        float64
	SeniorityNear float64 // mentor graduated 1-15 years before the mentee
	SeniorityFar  float64 // mentor graduated more than 15 years before
	Country       float64
	CityBonus     float64
	Areas         float64
	PerArea       float64
	Role          float64
}

var rubrics = map[MatchPurpose]matchWeights{
	PurposeMentorship: {
		Industry:      30,
		Skills:        25,
		SeniorityNear: 20,
		SeniorityFar:  10,
		Country:       15,
		CityBonus:     5,
		Areas:         10,
		PerArea:       5,
	},
	PurposeCareer: {
		Industry: 40,
		Skills:   35,
		Role:     25,
	},
}

// compatibilityScore rates how well candidate fits requester for the given
// purpose. Deterministic, pure; sub-scores accumulate as floats and the sum
// is rounded once at the end.
func compatibilityScore(candidate, requester *Profile, purpose MatchPurpose) int {
	w := rubrics[purpose]
	score := 0.0

	if candidate.Industry != "" && requester.Industry != "" && candidate.Industry == requester.Industry {
		score += w.Industry
	}

	score += skillOverlapScore(candidate.Skills, requester.Skills, w.Skills)

	switch purpose {
	case PurposeMentorship:
		// Credit requires the candidate (mentor) to have graduated before
		// the requester; a candidate graduating later earns nothing.
		switch gap := seniorityGap(candidate, requester); {
		case gap > 0 && gap <= 15:
			score += w.SeniorityNear
		case gap > 15:
			score += w.SeniorityFar
		}

		if candidate.Country != "" && requester.Country != "" && candidate.Country == requester.Country {
			score += w.Country
			if candidate.City != "" && requester.City != "" && candidate.City == requester.City {
				score += w.CityBonus
			}
		}

		if n := len(commonStrings(candidate.MentorshipAreas, requester.MentorshipAreas)); n > 0 {
			score += math.Min(w.Areas, float64(n)*w.PerArea)
		}

	case PurposeCareer:
		score += roleSimilarityScore(candidate.CurrentRole, requester.CurrentRole, w.Role)
	}

	// The rubric cannot exceed 100 by construction; the clamp protects
	// against future weight edits.
	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}

// seniorityGap is the number of years the candidate graduated before the
// requester. Zero when either year is unknown.
func seniorityGap(candidate, requester *Profile) int {
	if candidate.GraduationYear == 0 || requester.GraduationYear == 0 {
		return 0
	}
	return requester.GraduationYear - candidate.GraduationYear
}

// skillOverlapScore scales weight by |common| / max(len) with a zero-guard
// for empty lists.
func skillOverlapScore(candidate, requester []string, weight float64) float64 {
	if len(candidate) == 0 || len(requester) == 0 {
		return 0
	}
	common := len(commonStrings(candidate, requester))
	ratio := float64(common) / float64(max(len(candidate), len(requester)))
	return math.Min(weight, ratio*weight)
}

// commonStrings returns the candidate-side entries present in requester's
// list, case-insensitive, preserving candidate order.
func commonStrings(candidate, requester []string) []string {
	if len(candidate) == 0 || len(requester) == 0 {
		return nil
	}
	set := make(map[string]bool, len(requester))
	for _, s := range requester {
		set[strings.ToLower(s)] = true
	}
	var common []string
	for _, s := range candidate {
		if set[strings.ToLower(s)] {
			common = append(common, s)
		}
	}
	return common
}

// roleSimilarityScore tokenizes both role strings on whitespace and scales
// weight by shared-token ratio. Zero when either role is missing.
func roleSimilarityScore(candidateRole, requesterRole string, weight float64) float64 {
	if candidateRole == "" || requesterRole == "" {
		return 0
	}
	cand := strings.Fields(strings.ToLower(candidateRole))
	req := strings.Fields(strings.ToLower(requesterRole))
	if len(cand) == 0 || len(req) == 0 {
		return 0
	}
	set := make(map[string]bool, len(req))
	for _, t := range req {
		set[t] = true
	}
	common := 0
	for _, t := range cand {
		if set[t] {
			common++
		}
	}
	ratio := float64(common) / float64(max(len(cand), len(req)))
	return math.Min(weight, ratio*weight)
}

// matchReasons explains a scored pair. Factors are reported in a fixed
// order (industry, skills, then seniority or role) and only when they
// contributed nonzero score, so the list is stable and duplicate-free.
func matchReasons(candidate, requester *Profile, purpose MatchPurpose) []string {
	reasons := []string{}

	if candidate.Industry != "" && requester.Industry != "" && candidate.Industry == requester.Industry {
		reasons = append(reasons, "Same industry: "+candidate.Industry)
	}

	if common := commonStrings(candidate.Skills, requester.Skills); len(common) > 0 {
		if len(common) > maxSharedSkillsShown {
			common = common[:maxSharedSkillsShown]
		}
		reasons = append(reasons, "Shared skills: "+strings.Join(common, ", "))
	}

	switch purpose {
	case PurposeMentorship:
		if gap := seniorityGap(candidate, requester); gap > 0 {
			reasons = append(reasons, fmt.Sprintf("%d years of experience ahead", gap))
		}
	case PurposeCareer:
		if roleSimilarityScore(candidate.CurrentRole, requester.CurrentRole, rubrics[purpose].Role) > 0 {
			reasons = append(reasons, fmt.Sprintf("Similar roles: %s ↔ %s", candidate.CurrentRole, requester.CurrentRole))
		}
	}

	return reasons
}

// MatchEngine composes retrieval, scoring, ranking and explanation. It is
// stateless per call: nothing is shared between requests besides the store
// handle, so any number of requests may run concurrently.
type MatchEngine struct {
	store   ProfileStore
	log     *zap.Logger
	poolCap int
}

func newMatchEngine(store ProfileStore, log *zap.Logger, poolCap int) *MatchEngine {
	if log == nil {
		log = zap.NewNop()
	}
	if poolCap <= 0 {
		poolCap = defaultPoolCap
	}
	return &MatchEngine{store: store, log: log, poolCap: poolCap}
}

// FindMentorMatches returns up to limit prospective mentors for requesterID,
// ranked by descending compatibility.
func (e *MatchEngine) FindMentorMatches(ctx context.Context, requesterID, limit int) ([]Match, error) {
	return e.findMatches(ctx, requesterID, PurposeMentorship, limit)
}

// FindCareerMatches returns up to limit career-aligned verified alumni for
// requesterID, ranked by descending compatibility.
func (e *MatchEngine) FindCareerMatches(ctx context.Context, requesterID, limit int) ([]Match, error) {
	return e.findMatches(ctx, requesterID, PurposeCareer, limit)
}

func (e *MatchEngine) findMatches(ctx context.Context, requesterID int, purpose MatchPurpose, limit int) ([]Match, error) {
	limit = clampLimit(limit)

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	requester, err := e.store.GetProfile(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	var pool []*Profile
	switch purpose {
	case PurposeMentorship:
		pool, err = e.store.MentorCandidates(ctx, requesterID, e.poolCap)
	case PurposeCareer:
		pool, err = e.store.AlumniCandidates(ctx, requesterID, e.poolCap)
	default:
		return nil, fmt.Errorf("unknown match purpose %q", purpose)
	}
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(pool))
	for _, candidate := range pool {
		matches = append(matches, Match{
			Profile:            candidate,
			CompatibilityScore: compatibilityScore(candidate, requester, purpose),
		})
	}

	// Stable sort: equal scores keep retrieval order, so identical pool
	// snapshots always rank identically.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CompatibilityScore > matches[j].CompatibilityScore
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	// Issue every user load before resolving any thunk, so the surfaced
	// candidates collapse into a single batched users query.
	loaders := loadersFromContext(ctx)
	var thunks []dataloader.Thunk[*UserSummary]
	if loaders != nil {
		thunks = make([]dataloader.Thunk[*UserSummary], len(matches))
		for i, m := range matches {
			thunks[i] = loaders.Users.Load(ctx, m.Profile.UserID)
		}
	}

	out := make([]Match, 0, len(matches))
	for i, m := range matches {
		m.MatchReasons = matchReasons(m.Profile, requester, purpose)

		var u *UserSummary
		if thunks != nil {
			u, err = thunks[i]()
		} else {
			u, err = e.store.GetUser(ctx, m.Profile.UserID)
		}
		if err != nil {
			// Fail closed per candidate: an entry we cannot fully assemble
			// is dropped rather than returned half-built.
			e.log.Debug("dropping candidate without user record",
				zap.Int("user_id", m.Profile.UserID), zap.Error(err))
			continue
		}
		m.Profile.User = u
		out = append(out, m)
	}
	return out, nil
}

// Suggestions assembles the role-gated suggestion view: mentors for
// students and alumni, career matches for students only. Roles outside that
// set get empty sections, not an error.
func (e *MatchEngine) Suggestions(ctx context.Context, userID int) (*Suggestions, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s := &Suggestions{Mentors: []Match{}, CareerMatches: []Match{}}

	if user.Role == RoleStudent || user.Role == RoleAlumni {
		mentors, err := e.FindMentorMatches(ctx, userID, suggestionLimit)
		if err != nil {
			return nil, err
		}
		s.Mentors = mentors
	}

	if user.Role == RoleStudent {
		career, err := e.FindCareerMatches(ctx, userID, suggestionLimit)
		if err != nil {
			return nil, err
		}
		s.CareerMatches = career
	}

	return s, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultMatchLimit
	}
	if limit > maxMatchLimit {
		return maxMatchLimit
	}
	return limit
}
