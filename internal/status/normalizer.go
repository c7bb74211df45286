// Package status cleans free-text "action taken" values: local-language
// vocabulary is translated, whitespace tidied and key status words
// capitalized.
package status

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

type substitution struct {
	pattern *regexp.Regexp
	english string
}

// vocabulary is ordered: multi-word phrases come before the single words
// they contain.
var vocabulary = []struct{ local, english string }{
	{"sinampahan ng kaso", "filed a case"},
	{"iligal na pangingisda", "illegal fishing"},
	{"iligal na pagtotroso", "illegal logging"},
	{"iligal na droga", "illegal drugs"},
	{"hindi pa tapos", "pending"},
	{"tapos na", "resolved"},
	{"under imbestigasyon", "under investigation"},
	{"iniimbestigahan", "under investigation"},
	{"sinisiyasat", "under investigation"},
	{"imbestigasyon", "investigation"},
	{"nahuli", "arrested"},
	{"hinuli", "arrested"},
	{"inaresto", "arrested"},
	{"naaresto", "arrested"},
	{"dinakip", "arrested"},
	{"nakakulong", "detained"},
	{"ikinulong", "detained"},
	{"nakabinbin", "pending"},
	{"naghihintay", "pending"},
	{"naresolba", "resolved"},
	{"nalutas", "resolved"},
	{"naayos", "resolved"},
	{"kinumpiska", "confiscated"},
	{"nakumpiska", "confiscated"},
	{"pinagmulta", "fined"},
	{"binalaan", "warned"},
	{"babala", "warning"},
	{"pinalaya", "released"},
	{"iligal", "illegal"},
}

var substitutions = compile(vocabulary)

// keyWords are capitalized wherever they appear. Only the first word of a
// phrase is capitalized. Longer phrases come first so they win over the
// words inside them.
var keyWords = []string{
	"under investigation",
	"investigation",
	"arrested",
	"pending",
	"resolved",
	"confiscated",
	"detained",
	"released",
	"warned",
	"warning",
	"fined",
	"filed a case",
}

var (
	keyWordPattern  = compileKeyWords(keyWords)
	whitespace      = regexp.MustCompile(`\s+`)
	arrestedPattern = regexp.MustCompile(`(?i)arrested`)
)

func compile(entries []struct{ local, english string }) []substitution {
	out := make([]substitution, 0, len(entries))
	for _, e := range entries {
		out = append(out, substitution{
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e.local) + `\b`),
			english: e.english,
		})
	}
	return out
}

func compileKeyWords(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Normalize translates and tidies a status string. Any mention of an
// arrest collapses the whole value to "Arrested". The result is never
// empty unless the input is.
func Normalize(text string) string {
	cleaned := norm.NFC.String(text)
	for _, sub := range substitutions {
		cleaned = sub.pattern.ReplaceAllString(cleaned, sub.english)
	}

	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return text
	}

	if arrestedPattern.MatchString(cleaned) {
		return "Arrested"
	}

	// Casers keep state, so each call gets its own.
	lower := cases.Lower(language.English)
	cleaned = keyWordPattern.ReplaceAllStringFunc(cleaned, func(m string) string {
		return upperFirst(lower.String(m))
	})
	return upperFirst(cleaned)
}

func upperFirst(s string) string {
	for i, r := range s {
		return strings.ToUpper(string(r)) + s[i+len(string(r)):]
	}
	return s
}
