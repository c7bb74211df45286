package writeback

import (
	"fmt"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
)

// List returns an array field as []any, or false when the field is not
// a list.
func List(doc map[string]any, field string) ([]any, bool) {
	switch v := doc[field].(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

// RemoveAt returns a new slice without element idx.
func RemoveAt(list []any, idx int) []any {
	out := make([]any, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

// ReplaceAt returns a new slice with element idx replaced.
func ReplaceAt(list []any, idx int, v any) []any {
	out := make([]any, len(list))
	copy(out, list)
	out[idx] = v
	return out
}

// EntryID returns the id an array entry carries, if any. It resolves the
// same key variants and value types the mapper reads ids from.
func EntryID(entry any) string {
	m, ok := entry.(map[string]any)
	if !ok {
		return ""
	}
	return fieldmap.Generic.String(m, report.FieldID)
}

// IndexOf finds an entry by its id, falling back to a positional id
// scoped to document.
func IndexOf(list []any, document, id string) int {
	for i, entry := range list {
		if got := EntryID(entry); got != "" && got == id {
			return i
		}
	}
	if doc, idx, ok := core.ParsePositionalID(core.ID(id)); ok && doc == document && idx < len(list) && EntryID(list[idx]) == "" {
		return idx
	}
	return -1
}

// CheckEntry verifies that the element at idx is still the one the record
// was read from. An entry that carries an id must match recordID; an
// entry without one must match the positional id.
func CheckEntry(list []any, document string, idx int, recordID string) error {
	if idx < 0 || idx >= len(list) {
		return fmt.Errorf("%w: index %d out of range (len %d)", core.ErrTargetMissing, idx, len(list))
	}
	if _, ok := list[idx].(map[string]any); !ok {
		return fmt.Errorf("%w: entry %d is not an object", core.ErrStaleIndex, idx)
	}
	if recordID == "" {
		return nil
	}
	want := recordID
	if got := EntryID(list[idx]); got != "" {
		if got != want {
			return fmt.Errorf("%w: %s[%d] holds %s, expected %s", core.ErrStaleIndex, document, idx, got, want)
		}
		return nil
	}
	if core.PositionalID(document, idx).String() != want {
		return fmt.Errorf("%w: %s[%d] no longer holds %s", core.ErrStaleIndex, document, idx, want)
	}
	return nil
}
