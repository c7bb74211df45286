package report

import "strings"

// DuplicateKey groups records describing the same incident. who and
// actionTaken are deliberately not part of it.
func DuplicateKey(r CanonicalRecord) string {
	parts := []string{
		r.Department,
		r.Municipality,
		r.District,
		strings.ToLower(strings.TrimSpace(r.What)),
		r.Where,
		r.When.Format(),
	}
	return strings.Join(strings.Fields(strings.Join(parts, " | ")), " ")
}

// ImportKey is the exact-match key the import pipeline uses against the
// loaded working set.
func ImportKey(r CanonicalRecord) string {
	return strings.Join([]string{
		strings.TrimSpace(r.What),
		strings.TrimSpace(r.Where),
		strings.TrimSpace(r.Municipality),
		strings.TrimSpace(r.Department),
	}, "\x1f")
}
