package fieldmap

import (
	"fmt"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
)

// editable lists the canonical fields a patch may touch.
var editable = func() map[string]bool {
	m := make(map[string]bool, len(report.CanonicalFields))
	for _, f := range report.CanonicalFields {
		m[f] = true
	}
	return m
}()

// ValidatePatch rejects patches naming non-canonical fields.
func ValidatePatch(patch report.Patch) error {
	if len(patch) == 0 {
		return errors.InvalidInput("empty patch")
	}
	for f := range patch {
		if !editable[f] {
			return errors.InvalidInput(fmt.Sprintf("field %q cannot be edited", f))
		}
	}
	return nil
}

// ApplyPatch writes patch values into a copy of payload under the keys
// each field is already stored under.
func ApplyPatch(payload map[string]any, department string, patch report.Patch) map[string]any {
	out := make(map[string]any, len(payload)+len(patch))
	for k, v := range payload {
		out[k] = v
	}
	if d, ok := patch[report.FieldDepartment].(string); ok && d != "" {
		department = d
	}
	for field, v := range patch {
		out[SourceKey(payload, department, field)] = StorageValue(v)
	}
	return out
}

// StorageValue converts patch values to what is persisted.
func StorageValue(v any) any {
	switch val := v.(type) {
	case report.When:
		return val.StorageValue()
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	}
	return v
}
