package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"law-reports-backend/internal/config"
)

func TestRosterCanonical(t *testing.T) {
	r := NewRoster(config.RosterConfig{
		Allowed:    []string{"Nathanial Beneke", "Riekie Van Ellinckhuyzen"},
		Aliases:    map[string]string{"Riekie Van Ellinckhuyzen": "Maria Van Ellinckhuyzen", "Nate": "Nathanial Beneke"},
		Initials:   map[string]string{"NB": "Nathanial Beneke"},
		Categories: map[string]string{"Nathanial Beneke": "Intake"},
	})

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Nathanial Beneke", "Nathanial Beneke", true},
		{"NATHANIAL   beneke", "Nathanial Beneke", true},
		{"riekie van ellinckhuyzen", "Maria Van Ellinckhuyzen", true},
		{"nate", "Nathanial Beneke", true},
		{"Unknown Person", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Canonical(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	got, ok := r.CanonicalInitials("n.b.")
	assert.True(t, ok)
	assert.Equal(t, "Nathanial Beneke", got)

	cat, ok := r.Category("nathanial beneke")
	assert.True(t, ok)
	assert.Equal(t, "Intake", cat)

	_, ok = r.Category("Maria Van Ellinckhuyzen")
	assert.False(t, ok)
}
