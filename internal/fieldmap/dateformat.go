package fieldmap

import "github.com/pgocasting/ipatrollersys-sub002/internal/datetime"

const isoDate = "2006-01-02"

// FormatSpreadsheetDate renders spreadsheet serial dates as ISO dates.
// Human-written strings pass through untouched, so the result is stable
// when applied twice.
func FormatSpreadsheetDate(v any) any {
	switch val := v.(type) {
	case string:
		if n, ok := datetime.ParseSerial(val); ok {
			return datetime.SerialToTime(n).Format(isoDate)
		}
		return val
	}
	if n, ok := datetime.AsNumber(v); ok && datetime.InSerialRange(n) {
		return datetime.SerialToTime(n).Format(isoDate)
	}
	return v
}
