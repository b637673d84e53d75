// Package app is the terminal front end: a bubbletea model around the
// player store, the playback controller and the song queue.
package app

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/playerctl"
	"github.com/llehouerou/tunedeck/internal/playlist"
	"github.com/llehouerou/tunedeck/internal/store"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 0.05

	storeEventBuffer = 16
)

// Model is the root application model.
type Model struct {
	Playback playback.Service
	Control  *playerctl.Adapter
	Store    *store.Store
	Queue    *playlist.Queue

	sub        *playback.Subscription
	storeCh    chan store.Change
	unsubStore func()

	keys keyMap
	help help.Model
	now  func() time.Time

	LyricsOffset int
	Notice       string
	Width        int
	Height       int
}

// New creates the model and subscribes it to the controller and store.
// Close releases the subscriptions.
func New(ctrl playback.Service, pc *playerctl.Adapter, st *store.Store, q *playlist.Queue) Model {
	if q == nil {
		q = playlist.NewQueue()
	}
	storeCh := make(chan store.Change, storeEventBuffer)
	unsub := st.Subscribe(func(ch store.Change) {
		select {
		case storeCh <- ch:
		default:
			// The view reads the store directly, so a dropped change
			// only delays a redraw.
		}
	})

	return Model{
		Playback:   ctrl,
		Control:    pc,
		Store:      st,
		Queue:      q,
		sub:        ctrl.Subscribe(),
		storeCh:    storeCh,
		unsubStore: unsub,
		keys:       newKeyMap(),
		help:       help.New(),
		now:        time.Now,
		Width:      80,
		Height:     24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.WatchEvents(), TickCmd())
}

// Close detaches the model from the store and the controller.
func (m Model) Close() {
	if m.unsubStore != nil {
		m.unsubStore()
	}
	if m.sub != nil {
		m.sub.Close()
	}
}
