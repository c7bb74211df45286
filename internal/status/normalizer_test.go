package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"arrest phrase collapses", "nahuli sa iligal na pangingisda", "Arrested"},
		{"english arrest collapses", "Suspect was ARRESTED and brought to station", "Arrested"},
		{"investigation", "iniimbestigahan pa", "Under investigation pa"},
		{"phrase keeps inner words lower", "FILED A CASE against owner", "Filed a case against owner"},
		{"phrase wins over inner word", "still under INVESTIGATION", "Still Under investigation"},
		{"pending", "  nakabinbin   ang kaso ", "Pending ang kaso"},
		{"resolved", "naresolba", "Resolved"},
		{"confiscation", "kinumpiska ang lambat", "Confiscated ang lambat"},
		{"english passthrough", "verbal warning given", "Verbal Warning given"},
		{"first letter", "case referred to barangay", "Case referred to barangay"},
		{"word boundary", "pendingx", "Pendingx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeNeverEmpty(t *testing.T) {
	assert.Equal(t, "   ", Normalize("   "))
	assert.Equal(t, "", Normalize(""))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"nahuli sa iligal na pangingisda",
		"iniimbestigahan pa",
		"tapos na ang usapan",
		"Pending",
		"verbal warning given",
		"pinagmulta at binalaan",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
