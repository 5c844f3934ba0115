package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyGiveBackActivity(t *testing.T) {
	var b GiveBackBreakdown

	b, err := applyGiveBackActivity(b, ActivityMentorship, 3)
	require.NoError(t, err)
	b, err = applyGiveBackActivity(b, ActivityReferral, 1)
	require.NoError(t, err)
	b, err = applyGiveBackActivity(b, ActivityTalk, 2)
	require.NoError(t, err)
	b, err = applyGiveBackActivity(b, ActivityDonation, 1)
	require.NoError(t, err)
	b, err = applyGiveBackActivity(b, ActivityEvent, 4)
	require.NoError(t, err)

	assert.Equal(t, GiveBackBreakdown{
		MentorshipHours: 3,
		ReferralsGiven:  1,
		TalksGiven:      2,
		DonationsCount:  1,
		EventsAttended:  4,
	}, b)
}

func TestApplyGiveBackActivityUnknown(t *testing.T) {
	before := GiveBackBreakdown{TalksGiven: 1}
	after, err := applyGiveBackActivity(before, "volunteering", 1)
	assert.Error(t, err)
	assert.Equal(t, before, after, "breakdown must be untouched on error")
}

func TestGiveBackScore(t *testing.T) {
	cases := []struct {
		name      string
		breakdown GiveBackBreakdown
		want      int
	}{
		{"empty", GiveBackBreakdown{}, 0},
		{"mentorship hours", GiveBackBreakdown{MentorshipHours: 3}, 15},
		{"single talk", GiveBackBreakdown{TalksGiven: 1}, 25},
		{"mixed", GiveBackBreakdown{MentorshipHours: 2, ReferralsGiven: 1, DonationsCount: 1, EventsAttended: 2}, 45},
		{"negative adjustment floors at zero", GiveBackBreakdown{MentorshipHours: -4}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, giveBackScore(tc.breakdown))
		})
	}
}
