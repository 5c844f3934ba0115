package main

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow feeds positional column values into scanProfile.
type fakeRow struct {
	vals []interface{}
}

func (f fakeRow) Scan(dest ...interface{}) error {
	if len(dest) != len(f.vals) {
		return fmt.Errorf("expected %d columns, got %d", len(f.vals), len(dest))
	}
	for i, v := range f.vals {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestScanProfileColumnOrder(t *testing.T) {
	row := fakeRow{vals: []interface{}{
		7, "Mari", "Tamm", 2015, "BSc",
		"Computer Science", "Staff Engineer", "Acme",
		"Tech", "Estonia", "Tallinn", "Hello",
		[]byte(`["Go","SQL"]`), []byte(`["career"]`), "https://img.example/7.png",
		true, true, 40,
	}}

	p, err := scanProfile(row)
	require.NoError(t, err)

	assert.Equal(t, 7, p.UserID)
	assert.Equal(t, "Mari", p.FirstName)
	assert.Equal(t, "Tamm", p.LastName)
	assert.Equal(t, 2015, p.GraduationYear)
	assert.Equal(t, "Computer Science", p.Major)
	assert.Equal(t, "Staff Engineer", p.CurrentRole)
	assert.Equal(t, "Acme", p.CurrentCompany)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Equal(t, []string{"career"}, p.MentorshipAreas)
	assert.True(t, p.IsAvailableForMentorship)
	assert.Equal(t, 40, p.GiveBackScore)
}

func TestProfileColumnsAvoidReservedNames(t *testing.T) {
	// Unquoted reserved keywords parse as keyword expressions in Postgres
	// (CURRENT_ROLE resolves to the session role, not a column), so none of
	// them may appear in the shared column list.
	reserved := []string{"current_role", "current_user", "current_date", "current_time", "session_user"}
	cols := strings.ToLower(profileColumns)
	for _, kw := range reserved {
		assert.NotContains(t, cols, kw)
	}
}

func TestParseStringArray(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty", []byte{}, []string{}},
		{"json null", []byte("null"), []string{}},
		{"array", []byte(`["Go","SQL"]`), []string{"Go", "SQL"}},
		{"empty array", []byte(`[]`), []string{}},
		{"malformed", []byte(`{"not":"an array"}`), []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseStringArray(tc.raw))
		})
	}
}
