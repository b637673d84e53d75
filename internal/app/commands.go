package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tunedeck/internal/playerctl"
)

// TickCmd returns a command that sends a TickMsg every second.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// WatchEvents returns a command that waits for the next controller or
// store event and converts it to a tea.Msg.
func (m Model) WatchEvents() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub, storeCh := m.sub, m.storeCh
	return func() tea.Msg {
		select {
		case e := <-sub.TimeUpdated:
			return TimeUpdateMsg(e)
		case e := <-sub.Loaded:
			return LoadedMsg(e)
		case e := <-sub.Errors:
			return PlaybackErrorMsg{Err: e}
		case playing := <-sub.PlayStateChanged:
			return PlayStateMsg(playing)
		case ch, ok := <-storeCh:
			if !ok {
				return ServiceClosedMsg{}
			}
			return StoreChangedMsg(ch)
		case <-sub.Done:
			return ServiceClosedMsg{}
		}
	}
}

// RetryCmd reloads and plays the current song in the background.
func RetryCmd(pc *playerctl.Adapter) tea.Cmd {
	return func() tea.Msg {
		return RetryDoneMsg{Err: pc.Retry(context.Background())}
	}
}
