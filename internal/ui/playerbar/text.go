package playerbar

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// sanitize drops control characters and invalid UTF-8 so bad tags cannot
// break the terminal layout.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size <= 1:
		case r == '\u00a0':
			b.WriteByte(' ')
		case r == '\t' || !unicode.IsControl(r):
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// truncate shortens s to maxWidth cells with a single-character ellipsis.
func truncate(s string, maxWidth int) string {
	return runewidth.Truncate(sanitize(s), maxWidth, "…")
}

func stringWidth(s string) int {
	return runewidth.StringWidth(sanitize(s))
}
