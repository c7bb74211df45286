// Package ingest reads every candidate storage location and flattens the
// four historical layouts into raw entries with provenance.
package ingest

import "github.com/pgocasting/ipatrollersys-sub002/domain/report"

// Classify inspects a document's top-level fields. A layout field that is
// present but not a list does not count.
func Classify(doc map[string]any) report.Shape {
	switch {
	case isList(doc[report.MonthReportsField]):
		return report.MonthBasedShape{}
	case isList(doc[report.ActionsField]):
		return report.ActionsArrayShape{}
	case isList(doc[report.ReportsField]):
		return report.ReportsArrayShape{}
	}
	return report.IndividualShape{}
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []map[string]any:
		return true
	}
	return false
}

// Entries returns the array entries of field in document order. Entries
// that are not objects yield nil so indexes stay aligned with storage.
func Entries(doc map[string]any, field string) []map[string]any {
	switch list := doc[field].(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, len(list))
		for i, item := range list {
			if m, ok := item.(map[string]any); ok {
				out[i] = m
			}
		}
		return out
	}
	return nil
}
