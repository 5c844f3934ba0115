package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateProfileInput(t *testing.T) {
	valid := func() *Profile {
		return &Profile{
			FirstName:      "Mari",
			LastName:       "Tamm",
			Degree:         "BSc",
			GraduationYear: 2020,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, validateProfileInput(valid()))
	})

	t.Run("blank first name", func(t *testing.T) {
		p := valid()
		p.FirstName = "   "
		assert.Equal(t, "first_name_required", validateProfileInput(p))
	})

	t.Run("blank last name", func(t *testing.T) {
		p := valid()
		p.LastName = ""
		assert.Equal(t, "last_name_required", validateProfileInput(p))
	})

	t.Run("blank degree", func(t *testing.T) {
		p := valid()
		p.Degree = ""
		assert.Equal(t, "degree_required", validateProfileInput(p))
	})

	t.Run("graduation year too old", func(t *testing.T) {
		p := valid()
		p.GraduationYear = 1949
		assert.Equal(t, "invalid_graduation_year", validateProfileInput(p))
	})

	t.Run("graduation year too far out", func(t *testing.T) {
		p := valid()
		p.GraduationYear = time.Now().Year() + 6
		assert.Equal(t, "invalid_graduation_year", validateProfileInput(p))
	})

	t.Run("near future allowed", func(t *testing.T) {
		p := valid()
		p.GraduationYear = time.Now().Year() + 5
		assert.Empty(t, validateProfileInput(p))
	})
}
