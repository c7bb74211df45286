package datetime

import (
	"regexp"
	"strings"
	"time"
)

// MonthUndetermined is returned when no month can be read from the text.
const MonthUndetermined time.Month = -1

var (
	fullMonthPattern  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	shortMonthPattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)\b\.?`)
	lastWeekPattern   = regexp.MustCompile(`(?i)\blast\s+week\b`)
	yesterdayPattern  = regexp.MustCompile(`(?i)\byesterday\b`)
	todayPattern      = regexp.MustCompile(`(?i)\b(today|tonight|this morning|this afternoon|this evening)\b`)
)

var shortMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

// DetectMonth extracts a best-guess month from free text: full month
// names first, then abbreviations, then relative terms resolved against
// now.
func DetectMonth(text string, now time.Time) time.Month {
	if m := fullMonthPattern.FindString(text); m != "" {
		if t, err := time.Parse("January", capitalize(m)); err == nil {
			return t.Month()
		}
	}
	if m := shortMonthPattern.FindStringSubmatch(text); m != nil {
		if month, ok := shortMonths[strings.ToLower(m[1])]; ok {
			return month
		}
	}
	switch {
	case lastWeekPattern.MatchString(text):
		return now.AddDate(0, 0, -7).Month()
	case yesterdayPattern.MatchString(text):
		return now.AddDate(0, 0, -1).Month()
	case todayPattern.MatchString(text):
		return now.Month()
	}
	return MonthUndetermined
}

// MonthOf returns the month of a resolved value: the instant's month, or
// the month detected in a preserved phrase.
func MonthOf(w interface {
	Time() (time.Time, bool)
	Phrase() (string, bool)
}, now time.Time) time.Month {
	if t, ok := w.Time(); ok {
		return t.Month()
	}
	phrase, _ := w.Phrase()
	return DetectMonth(phrase, now)
}

func capitalize(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
