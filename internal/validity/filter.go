// Package validity keeps only records whose critical fields are all
// present, then fills display defaults on the survivors.
package validity

import (
	"strings"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
)

// Display defaults for non-critical fields.
const (
	NotSpecified  = "Not specified"
	NoneGiven     = "None"
	PendingAction = "Pending"
)

// Accept reports whether every critical field is non-empty and not a
// sentinel. There is no partial credit.
func Accept(r report.CanonicalRecord) bool {
	for _, f := range report.CriticalFields {
		if report.IsSentinel(r.Field(f)) {
			return false
		}
	}
	return true
}

// WithDefaults fills missing non-critical fields.
func WithDefaults(r report.CanonicalRecord) report.CanonicalRecord {
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&r.ActionTaken, PendingAction)
	fill(&r.Who, NotSpecified)
	fill(&r.Why, NotSpecified)
	fill(&r.How, NotSpecified)
	fill(&r.Gender, NotSpecified)
	fill(&r.Source, NotSpecified)
	fill(&r.OtherInformation, NoneGiven)
	return r
}

// Filter returns accepted records with defaults applied, preserving
// order, and the number rejected.
func Filter(records []report.CanonicalRecord) ([]report.CanonicalRecord, int) {
	kept := make([]report.CanonicalRecord, 0, len(records))
	rejected := 0
	for _, r := range records {
		if !Accept(r) {
			rejected++
			continue
		}
		kept = append(kept, WithDefaults(r))
	}
	return kept, rejected
}
