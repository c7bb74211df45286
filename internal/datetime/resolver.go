// Package datetime resolves the many encodings a "when"/"date" value
// takes in stored action reports into a report.When.
package datetime

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
)

// Spreadsheet serial dates count days from this epoch.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	minSerial = 1
	maxSerial = 100000
	secsInDay = 86400
)

var (
	serialPattern  = regexp.MustCompile(`^\d+(\.\d+)?$`)
	isoDatePrefix  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	naturalMarkers = regexp.MustCompile(`(?i)\b(at about|yesterday|today|morning|evening|afternoon)\b`)
)

// layouts tried for strings that look like ISO dates.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// timeConverter matches protobuf timestamps and similar wrappers.
type timeConverter interface {
	AsTime() time.Time
}

// timeGetter matches BSON DateTime and similar wrappers.
type timeGetter interface {
	Time() time.Time
}

// Resolver converts raw values to report.When. Now supplies the fallback
// instant.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

var defaultResolver = NewResolver()

// Resolve uses the wall-clock resolver.
func Resolve(v any) report.When {
	return defaultResolver.Resolve(v)
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Resolve never fails: anything it cannot interpret becomes the current
// instant. Natural-language strings are checked before generic parsing,
// since phrases like "Today morning" otherwise parse into nonsense.
func (r *Resolver) Resolve(v any) report.When {
	if v == nil {
		return report.At(r.now())
	}

	if t, ok := opaqueTime(v); ok {
		return report.At(t)
	}

	switch val := v.(type) {
	case report.When:
		if val.IsZero() {
			return report.At(r.now())
		}
		return val
	case time.Time:
		if val.IsZero() {
			return report.At(r.now())
		}
		return report.At(val)
	case *time.Time:
		if val == nil || val.IsZero() {
			return report.At(r.now())
		}
		return report.At(*val)
	case string:
		return r.resolveString(val)
	}

	if n, ok := toFloat(v); ok {
		return report.At(numericTime(n))
	}

	return report.At(r.now())
}

func (r *Resolver) resolveString(raw string) report.When {
	s := strings.TrimSpace(raw)
	if s == "" {
		return report.At(r.now())
	}

	if serialPattern.MatchString(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil && n >= minSerial && n <= maxSerial {
			return report.At(SerialToTime(n))
		}
	}

	if IsNaturalLanguage(s) {
		return report.Phrase(raw)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return report.At(t.UTC())
		}
	}

	return report.At(r.now())
}

// IsNaturalLanguage reports whether a string should be shown verbatim
// rather than coerced into a date.
func IsNaturalLanguage(s string) bool {
	s = strings.TrimSpace(s)
	if naturalMarkers.MatchString(s) {
		return true
	}
	return !isoDatePrefix.MatchString(s)
}

// SerialToTime converts a spreadsheet serial date (days since
// 1899-12-30, fractional part is time of day) to UTC.
func SerialToTime(serial float64) time.Time {
	whole := math.Floor(serial)
	frac := serial - whole
	t := serialEpoch.Add(time.Duration(whole) * secsInDay * time.Second)
	return t.Add(time.Duration(math.Round(frac*secsInDay)) * time.Second)
}

// numericTime treats small numbers as serial dates and the rest as
// millisecond epochs.
func numericTime(n float64) time.Time {
	if n >= minSerial && n <= maxSerial {
		return SerialToTime(n)
	}
	return time.UnixMilli(int64(n)).UTC()
}

func opaqueTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case timeConverter:
		return val.AsTime(), true
	case timeGetter:
		return val.Time(), true
	case map[string]any:
		return firestoreTimestamp(val)
	}
	return time.Time{}, false
}

// firestoreTimestamp decodes {seconds, nanoseconds} objects that survive
// a JSON export of a document database timestamp.
func firestoreTimestamp(m map[string]any) (time.Time, bool) {
	secs, ok := lookupNumber(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := lookupNumber(m, "nanoseconds", "_nanoseconds")
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

func lookupNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if raw, ok := m[k]; ok {
			if n, ok := toFloat(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseSerial reports whether s is a spreadsheet serial date and returns
// its value.
func ParseSerial(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !serialPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || !InSerialRange(n) {
		return 0, false
	}
	return n, true
}

// InSerialRange reports whether n is plausibly a serial date.
func InSerialRange(n float64) bool {
	return n >= minSerial && n <= maxSerial
}

// AsNumber converts any numeric value, including json.Number.
func AsNumber(v any) (float64, bool) { return toFloat(v) }
