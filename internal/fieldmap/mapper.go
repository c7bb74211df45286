package fieldmap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
	"github.com/pgocasting/ipatrollersys-sub002/internal/status"
)

// Mapper turns raw payloads into canonical records.
type Mapper struct {
	resolver *datetime.Resolver
}

// NewMapper returns a mapper resolving dates with r, or the wall-clock
// resolver when r is nil.
func NewMapper(r *datetime.Resolver) *Mapper {
	if r == nil {
		r = datetime.NewResolver()
	}
	return &Mapper{resolver: r}
}

// Map resolves every canonical field of payload. defaultDepartment is used
// when the payload does not name one. Provenance is left for the caller.
func (m *Mapper) Map(payload map[string]any, defaultDepartment string) report.CanonicalRecord {
	dept := Generic.String(payload, report.FieldDepartment)
	if dept == "" {
		dept = strings.TrimSpace(defaultDepartment)
	}
	t := ForDepartment(dept)

	rec := report.CanonicalRecord{
		ID:               Generic.String(payload, report.FieldID),
		Department:       dept,
		Municipality:     t.String(payload, report.FieldMunicipality),
		District:         t.String(payload, report.FieldDistrict),
		What:             t.String(payload, report.FieldWhat),
		When:             m.resolver.Resolve(t.Value(payload, report.FieldWhen)),
		Where:            t.String(payload, report.FieldWhere),
		ActionTaken:      status.Normalize(t.String(payload, report.FieldActionTaken)),
		Who:              t.String(payload, report.FieldWho),
		Why:              t.String(payload, report.FieldWhy),
		How:              t.String(payload, report.FieldHow),
		Gender:           t.String(payload, report.FieldGender),
		Source:           t.String(payload, report.FieldSource),
		OtherInformation: t.String(payload, report.FieldOtherInformation),
	}

	photos := StringList(t.Value(payload, report.FieldPhotos))
	photos = append(photos, ExtractLinks(t.String(payload, report.FieldDocuments))...)
	rec.Photos = report.DedupeURLs(photos)
	return rec
}

// SourceKey returns the key a canonical field is physically stored under
// in payload, so edits overwrite the original spelling.
func SourceKey(payload map[string]any, department, field string) string {
	if field == report.FieldDepartment || field == report.FieldID {
		return Generic.KeyFor(payload, field)
	}
	return ForDepartment(department).KeyFor(payload, field)
}

// Stringify renders a scalar payload value as trimmed text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	case []any, []string:
		return strings.Join(StringList(val), ", ")
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// StringList flattens a list-ish value into non-empty strings. A single
// string is split as free text links.
func StringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(val))
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := Stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return ExtractLinks(val)
	}
	return nil
}
