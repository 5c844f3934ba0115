package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldTransition(t *testing.T) {
	date := func(year int, month time.Month) time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name           string
		graduationYear int
		now            time.Time
		want           bool
	}{
		{"graduated last year", 2025, date(2026, time.March), true},
		{"graduation year, before June", 2026, date(2026, time.May), false},
		{"graduation year, June", 2026, date(2026, time.June), true},
		{"graduation year, after June", 2026, date(2026, time.November), true},
		{"graduates next year", 2027, date(2026, time.December), false},
		{"year unknown", 0, date(2026, time.June), false},
		{"negative year", -1, date(2026, time.June), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldTransition(tc.graduationYear, tc.now))
		})
	}
}
