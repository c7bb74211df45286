package report

import "strings"

// sentinels are placeholder values treated the same as a missing value.
var sentinels = map[string]struct{}{
	"unknown":                  {},
	"no description":           {},
	"no description available": {},
	"unknown location":         {},
}

// IsSentinel reports whether v is empty or a placeholder such as
// "Unknown" or "No description available".
func IsSentinel(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	if s == "" {
		return true
	}
	_, ok := sentinels[s]
	return ok
}

// CriticalFields are the fields every record in the working set must carry.
var CriticalFields = []string{
	FieldDepartment,
	FieldMunicipality,
	FieldDistrict,
	FieldWhat,
	FieldWhere,
}

// MissingCritical returns the critical fields that are empty or sentinel.
func (r CanonicalRecord) MissingCritical() []string {
	var missing []string
	for _, f := range CriticalFields {
		if IsSentinel(r.Field(f)) {
			missing = append(missing, f)
		}
	}
	return missing
}
