package playerbar

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderLyrics renders at most height lines of lyrics starting at offset,
// each truncated to width. It returns the clamped offset so callers can
// keep scrolling within bounds.
func RenderLyrics(lyrics string, width, height, offset int) (string, int) {
	if height <= 0 {
		return "", 0
	}
	text := strings.TrimSpace(lyrics)
	if text == "" {
		return metaStyle.Render("No lyrics"), 0
	}

	lines := strings.Split(text, "\n")
	offset = min(max(offset, 0), max(len(lines)-height, 0))
	end := min(offset+height, len(lines))

	out := make([]string, 0, end-offset)
	for _, line := range lines[offset:end] {
		out = append(out, lyricsStyle.Render(runewidth.FillRight(truncate(line, width), width)))
	}
	return strings.Join(out, "\n"), offset
}
