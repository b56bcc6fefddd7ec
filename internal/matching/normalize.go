package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize reduces a free-text exercise name to its canonical matching
// key: lowercase, diacritics stripped, parentheticals removed, anything
// outside [a-z0-9 ] dropped, whitespace collapsed. Two display names
// that normalize identically are deliberately treated as the same
// exercise.
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = stripDiacritics(s)
	s = stripParentheticals(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripDiacritics applies NFD decomposition and drops combining marks,
// so "épaule" becomes "epaule".
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parentheticalRe matches a complete "(...)" group including content.
var parentheticalRe = regexp.MustCompile(`\([^)]*\)`)

// stripParentheticals removes "(...)" substrings including their
// content, e.g. "bench press (each side)" -> "bench press ".
func stripParentheticals(s string) string {
	return parentheticalRe.ReplaceAllString(s, "")
}
