package fieldmap

import (
	"regexp"
	"strings"
)

var (
	urlPattern    = regexp.MustCompile(`^https?://\S+$`)
	linkSeparator = regexp.MustCompile(`[\s,;]+`)
)

// ExtractLinks splits free text on whitespace, commas and semicolons and
// keeps the tokens that are http(s) URLs, first occurrence first.
func ExtractLinks(text string) []string {
	var links []string
	for _, tok := range linkSeparator.Split(strings.TrimSpace(text), -1) {
		if urlPattern.MatchString(tok) {
			links = append(links, tok)
		}
	}
	return dedupeStrings(links)
}
