// Package fieldmap resolves canonical action-report fields from source
// payloads whose keys vary in name and casing.
package fieldmap

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
)

// Rule lists the candidate source keys for one canonical field, most
// specific first.
type Rule struct {
	Field     string
	Keys      []string
	Default   string
	Transform func(any) any
}

// Table is one mapping vocabulary.
type Table struct {
	Name string
	// Required fields an imported row must carry to be kept.
	Required []string
	rules    map[string]Rule
}

func newTable(name string, required []string, rules ...Rule) *Table {
	t := &Table{Name: name, Required: required, rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		t.rules[r.Field] = r
	}
	return t
}

// with returns a copy of t under a new name with rules replaced.
func (t *Table) with(name string, required []string, rules ...Rule) *Table {
	out := &Table{Name: name, Required: required, rules: make(map[string]Rule, len(t.rules)+len(rules))}
	for k, v := range t.rules {
		out.rules[k] = v
	}
	for _, r := range rules {
		out.rules[r.Field] = r
	}
	return out
}

// Rule returns the rule for a canonical field.
func (t *Table) Rule(field string) (Rule, bool) {
	r, ok := t.rules[field]
	return r, ok
}

// Lookup returns the first non-empty value among the candidate keys,
// falling back to a key match that ignores case, spaces, slashes and
// underscores. The transform, if any, is applied to the found value.
func (t *Table) Lookup(payload map[string]any, field string) (key string, value any, ok bool) {
	rule, exists := t.rules[field]
	if !exists {
		rule = Rule{Field: field, Keys: variants(field)}
	}

	key, value, ok = firstNonEmpty(payload, rule.Keys)
	if !ok {
		key, value, ok = fuzzyMatch(payload, rule.Keys)
	}
	if ok && rule.Transform != nil {
		value = rule.Transform(value)
	}
	return key, value, ok
}

// Value is Lookup without the key.
func (t *Table) Value(payload map[string]any, field string) any {
	_, v, _ := t.Lookup(payload, field)
	return v
}

// String resolves a field to trimmed text, applying the rule default when
// nothing is found.
func (t *Table) String(payload map[string]any, field string) string {
	if _, v, ok := t.Lookup(payload, field); ok {
		if s := Stringify(v); s != "" {
			return s
		}
	}
	return t.rules[field].Default
}

// KeyFor returns the physical key a field is stored under in payload,
// or the canonical name when the payload does not carry it yet.
func (t *Table) KeyFor(payload map[string]any, field string) string {
	if key, _, ok := t.Lookup(payload, field); ok {
		return key
	}
	rule, exists := t.rules[field]
	if exists {
		for _, k := range rule.Keys {
			if _, present := payload[k]; present {
				return k
			}
		}
	}
	return field
}

func firstNonEmpty(payload map[string]any, keys []string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := payload[k]; ok && !isEmpty(v) {
			return k, v, true
		}
	}
	return "", nil, false
}

func fuzzyMatch(payload map[string]any, keys []string) (string, any, bool) {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[normalizeKey(k)] = true
	}
	// Sorted so the same payload always resolves to the same key.
	names := make([]string, 0, len(payload))
	for k := range payload {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if wanted[normalizeKey(k)] && !isEmpty(payload[k]) {
			return k, payload[k], true
		}
	}
	return "", nil, false
}

func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}

// variants expands a camelCase field into the header spellings seen in
// the wild: as-is, Title Case, UPPER CASE and UPPER_SNAKE.
func variants(field string) []string {
	words := splitCamel(field)
	title := make([]string, len(words))
	upper := make([]string, len(words))
	for i, w := range words {
		title[i] = strings.ToUpper(w[:1]) + w[1:]
		upper[i] = strings.ToUpper(w)
	}
	out := []string{field, strings.Join(title, " "), strings.Join(upper, " "), strings.Join(upper, "_")}
	return dedupeStrings(out)
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, strings.ToLower(s[start:i]))
			start = i
		}
	}
	return append(words, strings.ToLower(s[start:]))
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// keys concatenates candidate key lists.
func keys(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return dedupeStrings(out)
}

func genericRules() []Rule {
	rules := make([]Rule, 0, len(report.CanonicalFields)+1)
	for _, f := range report.CanonicalFields {
		rule := Rule{Field: f, Keys: variants(f)}
		switch f {
		case report.FieldWhen:
			rule.Keys = keys(variants(report.FieldWhen), variants(report.FieldDate))
		case report.FieldPhotos:
			rule.Keys = keys(variants(report.FieldPhotos), []string{"photoUrls", "photoURLs", "images"})
		}
		rules = append(rules, rule)
	}
	rules = append(rules, Rule{Field: report.FieldDocuments, Keys: variants(report.FieldDocuments)})
	return rules
}
