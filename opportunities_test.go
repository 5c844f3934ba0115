package main

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func nullTimeEmpty() sql.NullTime {
	return sql.NullTime{}
}

func TestValidateOpportunityInput(t *testing.T) {
	valid := func() *Opportunity {
		return &Opportunity{
			Title:       "Backend Engineer",
			Type:        "job",
			Description: "Build services.",
			Company:     "Acme",
			Status:      "open",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, validateOpportunityInput(valid()))
	})

	t.Run("blank title", func(t *testing.T) {
		o := valid()
		o.Title = "  "
		assert.Equal(t, "title_required", validateOpportunityInput(o))
	})

	t.Run("unknown type", func(t *testing.T) {
		o := valid()
		o.Type = "volunteering"
		assert.Equal(t, "invalid_type", validateOpportunityInput(o))
	})

	t.Run("every known type accepted", func(t *testing.T) {
		for _, typ := range []string{"job", "internship", "referral", "startup", "collaboration"} {
			o := valid()
			o.Type = typ
			assert.Empty(t, validateOpportunityInput(o), typ)
		}
	})

	t.Run("blank description", func(t *testing.T) {
		o := valid()
		o.Description = ""
		assert.Equal(t, "description_required", validateOpportunityInput(o))
	})

	t.Run("description at limit", func(t *testing.T) {
		o := valid()
		o.Description = string(make([]byte, maxOpportunityDescription))
		assert.Empty(t, validateOpportunityInput(o))
	})

	t.Run("description over limit", func(t *testing.T) {
		o := valid()
		o.Description = string(make([]byte, maxOpportunityDescription+1))
		assert.Equal(t, "description_too_long", validateOpportunityInput(o))
	})

	t.Run("blank company", func(t *testing.T) {
		o := valid()
		o.Company = ""
		assert.Equal(t, "company_required", validateOpportunityInput(o))
	})

	t.Run("unknown status", func(t *testing.T) {
		o := valid()
		o.Status = "archived"
		assert.Equal(t, "invalid_status", validateOpportunityInput(o))
	})
}

func TestScanOpportunityColumnOrder(t *testing.T) {
	created := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	row := fakeRow{vals: []interface{}{
		3, "Backend Engineer", "job", "Build services.", "Acme", "Tallinn", true,
		[]byte(`["3y Go"]`), []byte(`["Go","SQL"]`), 4000.0, 6000.0,
		"EUR", nullTime(created.AddDate(0, 1, 0)),
		"https://acme.example/jobs/1", "open", 2, 12, created,
	}}

	o, err := scanOpportunity(row)
	require.NoError(t, err)

	assert.Equal(t, 3, o.ID)
	assert.Equal(t, "job", o.Type)
	assert.Equal(t, "Acme", o.Company)
	assert.True(t, o.IsRemote)
	assert.Equal(t, []string{"3y Go"}, o.Requirements)
	assert.Equal(t, []string{"Go", "SQL"}, o.Skills)
	assert.Equal(t, 4000.0, o.SalaryMin)
	assert.Equal(t, "EUR", o.SalaryCurrency)
	require.NotNil(t, o.ApplicationDeadline)
	assert.Equal(t, created.AddDate(0, 1, 0), *o.ApplicationDeadline)
	assert.Equal(t, 2, o.PostedBy)
	assert.Equal(t, 12, o.Views)
}

func TestScanOpportunityNullDeadline(t *testing.T) {
	row := fakeRow{vals: []interface{}{
		4, "Intern", "internship", "Learn.", "Acme", "", false,
		[]byte(`[]`), []byte(`[]`), 0.0, 0.0,
		"", nullTimeEmpty(),
		"", "open", 2, 0, time.Now(),
	}}

	o, err := scanOpportunity(row)
	require.NoError(t, err)
	assert.Nil(t, o.ApplicationDeadline)
	assert.Empty(t, o.Requirements)
}
