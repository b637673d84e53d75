package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/preview"
	"github.com/llehouerou/tunedeck/internal/store"
	"github.com/llehouerou/tunedeck/internal/ui/overlay"
	"github.com/llehouerou/tunedeck/internal/ui/playerbar"
)

var (
	appTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a78bfa")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f1a208"))
	lyricsBox     = lipgloss.NewStyle().Padding(0, 3)
	helpBox       = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#a78bfa")).
		Padding(0, 1)
)

// View renders the application UI.
func (m Model) View() string {
	st := m.Store.State()

	parts := []string{m.renderHeader()}
	if st.IsVisible {
		ps := m.playerState(st)
		parts = append(parts, playerbar.Render(ps, m.Width))
		if st.ShowLyrics && st.CurrentSong != nil {
			lyrics, _ := playerbar.RenderLyrics(st.CurrentSong.Lyrics, max(m.Width-6, 10), m.lyricsHeight(st), m.LyricsOffset)
			parts = append(parts, lyricsBox.Render(lyrics))
		}
	} else {
		parts = append(parts, m.renderClosed(st))
	}
	if m.Notice != "" {
		parts = append(parts, noticeStyle.Render(m.Notice))
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))

	view := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.help.ShowAll {
		box := helpBox.Render(m.help.FullHelpView(m.keys.FullHelp()))
		view = overlay.Center(view, box, m.Width, m.Height)
	}
	return view
}

func (m Model) renderHeader() string {
	title := appTitleStyle.Render("tunedeck")
	var queue string
	if n := m.Queue.Len(); n > 1 {
		queue = mutedStyle.Render(fmt.Sprintf("%d/%d", m.Queue.CurrentIndex()+1, n))
	}
	gap := max(m.Width-lipgloss.Width(title)-lipgloss.Width(queue), 1)
	return title + strings.Repeat(" ", gap) + queue
}

func (m Model) renderClosed(st store.PlayerState) string {
	if st.CurrentSong == nil {
		return mutedStyle.Render("Nothing selected · n to play the first song")
	}
	return mutedStyle.Render("Player closed · o to reopen " + st.CurrentSong.Title)
}

// playerState gathers the bar state from the store, controller and adapter.
func (m Model) playerState(st store.PlayerState) playerbar.State {
	s := playerbar.State{
		Visible:  st.IsVisible,
		Repeat:   st.IsRepeat,
		Volume:   m.Control.Volume(),
		Muted:    m.Control.Muted(),
		Position: m.Playback.CurrentTime(),
		Duration: m.Playback.Duration(),
	}
	if song := st.CurrentSong; song != nil {
		s.Title = song.Title
		s.Artist = song.Artist
		s.Label = preview.Label(song, m.now())
		if s.Duration <= 0 {
			s.Duration = song.Duration
		}
	}

	switch m.Playback.State() {
	case playback.StatePlaying:
		s.Status = playerbar.StatusPlaying
	case playback.StateLoading:
		s.Status = playerbar.StatusLoading
	case playback.StateError:
		s.Status = playerbar.StatusError
	case playback.StateEmpty:
		s.Status = playerbar.StatusIdle
	case playback.StateReady, playback.StatePaused, playback.StateEnded:
		s.Status = playerbar.StatusPaused
	}
	if err := m.Control.LastError(); err != nil {
		s.Status = playerbar.StatusError
		s.Err = err.Error()
	}
	return s
}

// lyricsHeight is the room left under the header, bar, notice and help.
func (m Model) lyricsHeight(st store.PlayerState) int {
	used := 1 + playerbar.Height(m.playerState(st)) + 2
	return max(m.Height-used, 3)
}
