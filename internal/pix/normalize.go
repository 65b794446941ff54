package pix

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds text into the restricted character set a BR Code field
// accepts: diacritics removed, everything outside [A-Za-z0-9 ] dropped,
// upper-cased and truncated to maxLen. An empty result is not an error.
func Normalize(text string, maxLen int) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Malformed UTF-8 never aborts normalization; the ASCII filter
		// below discards whatever the transform could not handle.
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}

	out := b.String()
	if maxLen >= 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
