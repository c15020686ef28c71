package display

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SignText folds s into the printable ASCII range the sign fonts carry.
// Accents are stripped, typographic punctuation is mapped to its plain
// form, anything else outside the font becomes '?', and runs of
// whitespace collapse to a single space.
func SignText(s string) string {
	// transform.Chain keeps state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Map(toSignRune), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(out), " ")
}

func toSignRune(r rune) rune {
	switch r {
	case '‘', '’', '‛', '′':
		return '\''
	case '“', '”', '‟', '″':
		return '"'
	case '‐', '‑', '‒', '–', '—', '−':
		return '-'
	}
	if unicode.IsSpace(r) {
		return ' '
	}
	if r < 0x20 || r > 0x7E {
		return '?'
	}
	return r
}
