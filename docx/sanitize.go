package docx

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// xmlIllegal matches runes that may not appear in an XML 1.0 document.
var xmlIllegal = runes.Predicate(func(r rune) bool {
	switch {
	case r == '\t' || r == '\n':
		return false
	case r < 0x20:
		return true
	case r >= 0xD800 && r <= 0xDFFF:
		return true
	case r == 0xFFFE || r == 0xFFFF:
		return true
	case r > utf8.MaxRune:
		return true
	}
	return false
})

// Sanitize prepares extracted text for WordprocessingML. Line endings are
// folded to "\n", ill-formed UTF-8 is replaced with U+FFFD, characters that
// XML 1.0 forbids are removed and the result is NFC-normalized.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	t := transform.Chain(runes.ReplaceIllFormed(), runes.Remove(xmlIllegal), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// Only reachable on a transformer bug; fall back to dropping
		// everything outside printable ASCII.
		return strings.Map(func(r rune) rune {
			if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7F) {
				return r
			}
			return -1
		}, s)
	}
	return out
}
