package normalize

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	"January 2, 2006", // June 6, 2025
	"2 January 2006",  // 6 June 2025
	"Jan 2, 2006",
	"2 Jan 2006",
}

var (
	reCommaSpace  = regexp.MustCompile(`\s*,\s*`)
	reSpaces      = regexp.MustCompile(`\s+`)
	reDigitLetter = regexp.MustCompile(`(\d)([A-Za-z])`)
	reLetterDigit = regexp.MustCompile(`([A-Za-z])(\d)`)
)

// ParseDate converts a textual date to "YYYY-MM-DD".
//
// The second return value is false when no layout matches. Callers treat that
// as a soft failure of the surrounding extraction, not as a hard fault.
func ParseDate(text string) (string, bool) {
	s := strings.TrimSpace(text)
	s = reDigitLetter.ReplaceAllString(s, "$1 $2")
	s = reLetterDigit.ReplaceAllString(s, "$1 $2")
	s = reCommaSpace.ReplaceAllString(s, ", ")
	s = reSpaces.ReplaceAllString(s, " ")
	if s == "" {
		return "", false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}
