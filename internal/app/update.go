package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tunedeck/internal/errmsg"
	"github.com/llehouerou/tunedeck/internal/store"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		return m, TickCmd()

	case TimeUpdateMsg, LoadedMsg, PlayStateMsg:
		return m, m.WatchEvents()

	case PlaybackErrorMsg:
		m.Notice = ""
		return m, m.WatchEvents()

	case StoreChangedMsg:
		if store.Change(msg).SongChanged() {
			m.LyricsOffset = 0
		}
		return m, m.WatchEvents()

	case ServiceClosedMsg:
		return m, tea.Quit

	case RetryDoneMsg:
		m.Notice = errmsg.Format(errmsg.OpPlaybackRetry, msg.Err)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.quit):
		return m, tea.Quit
	case key.Matches(msg, k.help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, k.togglePlay):
		m.Control.TogglePlay()
	case key.Matches(msg, k.seekBack):
		m.Control.Seek(-seekStep)
	case key.Matches(msg, k.seekFwd):
		m.Control.Seek(seekStep)
	case key.Matches(msg, k.volumeUp):
		m.Control.SetVolume(m.Control.Volume() + volumeStep)
	case key.Matches(msg, k.volumeDown):
		m.Control.SetVolume(m.Control.Volume() - volumeStep)
	case key.Matches(msg, k.mute):
		m.Control.ToggleMute()
	case key.Matches(msg, k.repeat):
		m.Store.ToggleRepeat()

	case key.Matches(msg, k.lyrics):
		m.Store.ToggleLyrics()
		m.LyricsOffset = 0
	case key.Matches(msg, k.lyricsUp):
		m.LyricsOffset = max(m.LyricsOffset-1, 0)
	case key.Matches(msg, k.lyricsDown):
		m.LyricsOffset = min(m.LyricsOffset+1, m.maxLyricsOffset())

	case key.Matches(msg, k.next):
		if song := m.Queue.Next(); song != nil {
			m.Store.PlaySong(*song)
		}
	case key.Matches(msg, k.prev):
		if song := m.Queue.Previous(); song != nil {
			m.Store.PlaySong(*song)
		}

	case key.Matches(msg, k.retry):
		if m.Control.LastError() != nil {
			m.Notice = ""
			return m, RetryCmd(m.Control)
		}
	case key.Matches(msg, k.dismiss):
		m.Control.DismissError()
		m.Notice = ""

	case key.Matches(msg, k.closePlay):
		m.Store.Close()
	case key.Matches(msg, k.reopen):
		m.Store.Reopen()
	}
	return m, nil
}

func (m Model) maxLyricsOffset() int {
	st := m.Store.State()
	if !st.ShowLyrics || st.CurrentSong == nil {
		return 0
	}
	lines := strings.Count(strings.TrimSpace(st.CurrentSong.Lyrics), "\n") + 1
	return max(lines-m.lyricsHeight(st), 0)
}
