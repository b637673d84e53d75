// Package playerbar renders the player: song info, play state, progress,
// volume, repeat and the current error.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Status is the glyph-level play state shown by the bar.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusError
)

const (
	playSymbol    = "▶"
	pauseSymbol   = "⏸"
	loadingSymbol = "…"
	errorSymbol   = "✗"
	repeatSymbol  = "⟳"
	separator     = "  "
)

// State holds everything needed to render the player bar.
type State struct {
	Visible  bool
	Status   Status
	Title    string
	Artist   string
	Label    string // e.g. review status and file size of a preview
	Position time.Duration
	Duration time.Duration
	Volume   float64
	Muted    bool
	Repeat   bool

	// Err is the user-facing error. When set the bar offers retry and
	// dismiss instead of transport controls.
	Err string
}

// Height returns the rendered height for s, borders included.
func Height(s State) int {
	if !s.Visible {
		return 0
	}
	lines := 2
	if s.Err != "" || s.Label != "" {
		lines++
	}
	return lines + 2
}

// Render returns the player bar for the given width, or "" when the player
// is closed.
func Render(s State, width int) string {
	if !s.Visible {
		return ""
	}
	innerWidth := max(width-6, 10)

	lines := []string{
		renderHeader(s, innerWidth),
		RenderProgressBar(s.Position, s.Duration, innerWidth, s.Status),
	}
	switch {
	case s.Err != "":
		lines = append(lines, renderError(s.Err, innerWidth))
	case s.Label != "":
		lines = append(lines, metaStyle.Render(truncate(s.Label, innerWidth)))
	}

	return barStyle.Padding(0, 2).Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderHeader builds "▶ Title · Artist ... ⟳  vol 70%".
func renderHeader(s State, width int) string {
	right := RenderVolume(s.Volume, s.Muted)
	if s.Repeat {
		right = repeatStyle.Render(repeatSymbol) + separator + right
	}

	title := s.Title
	if title == "" {
		title = "Unknown Track"
	}
	left := statusSymbol(s.Status) + " "
	avail := max(width-lipgloss.Width(right)-lipgloss.Width(left)-len(separator), 1)

	titleW := stringWidth(title)
	var info string
	switch {
	case s.Artist == "":
		info = titleStyle.Render(truncate(title, avail))
	case titleW+3+stringWidth(s.Artist) <= avail:
		info = titleStyle.Render(title) + artistStyle.Render(" · "+s.Artist)
	case titleW+4 <= avail:
		info = titleStyle.Render(title) + artistStyle.Render(truncate(" · "+s.Artist, avail-titleW))
	default:
		info = titleStyle.Render(truncate(title, avail))
	}
	return row(left+info, right, width)
}

func renderError(msg string, width int) string {
	hint := hintStyle.Render("enter retry · esc dismiss")
	avail := max(width-lipgloss.Width(hint)-len(separator)-2, 1)
	return row(errorStyle.Render(errorSymbol+" "+truncate(msg, avail)), hint, width)
}

func statusSymbol(s Status) string {
	switch s {
	case StatusPlaying:
		return playingStyle.Render(playSymbol)
	case StatusLoading:
		return metaStyle.Render(loadingSymbol)
	case StatusError:
		return errorStyle.Render(errorSymbol)
	case StatusIdle, StatusPaused:
		return metaStyle.Render(pauseSymbol)
	}
	return pauseSymbol
}

// RenderVolume renders "vol  70%" or "muted".
func RenderVolume(volume float64, muted bool) string {
	if muted {
		return metaStyle.Render("muted")
	}
	return progressTimeStyle.Render(fmt.Sprintf("vol %3d%%", int(volume*100+0.5)))
}

// row places left and right at opposite ends of width.
func row(left, right string, width int) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func formatDuration(d time.Duration) string {
	d = max(d, 0)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
