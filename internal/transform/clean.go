package transform

import (
	"regexp"
	"strings"
)

// space is the full Unicode whitespace set, including the ASCII separators
// 0x1c-0x1f. RE2's \s alone is ASCII-only and would drop no-break spaces.
const space = `\s\v\x1c-\x1f\x85\p{Z}`

var (
	tagPattern       = regexp.MustCompile(`<.*?>`)
	nonLetterPattern = regexp.MustCompile(`[^A-Za-z` + space + `]`)
	spacePattern     = regexp.MustCompile(`[` + space + `]+`)
)

// CleanDescription strips markup tags, drops everything but ASCII letters and
// whitespace, collapses whitespace runs to one space, trims, and lowercases.
func CleanDescription(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	text = nonLetterPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
	return strings.ToLower(text)
}
