// Package store holds the music player's application state. The playback
// controller is driven by it and feeds back into it, but never owns it.
package store

import (
	"sync"

	"github.com/llehouerou/tunedeck/internal/observer"
)

// PlayerState is the declarative player state.
type PlayerState struct {
	CurrentSong *Song
	IsPlaying   bool
	IsRepeat    bool
	ShowLyrics  bool
	IsVisible   bool
}

// Change describes one state transition.
type Change struct {
	Prev PlayerState
	Next PlayerState
}

// SongChanged reports whether the current song is a different one.
func (c Change) SongChanged() bool {
	return songID(c.Prev.CurrentSong) != songID(c.Next.CurrentSong)
}

// Closed reports a visible to hidden transition.
func (c Change) Closed() bool {
	return c.Prev.IsVisible && !c.Next.IsVisible
}

// Opened reports a hidden to visible transition.
func (c Change) Opened() bool {
	return !c.Prev.IsVisible && c.Next.IsVisible
}

func songID(s *Song) string {
	if s == nil {
		return ""
	}
	return s.ID
}

// Store applies reducers and notifies subscribers of every real change.
// Changes are delivered one at a time in dispatch order; a dispatch made
// from inside a subscriber is delivered after the current one completes.
type Store struct {
	mu       sync.Mutex
	state    PlayerState
	queue    []Change
	emitting bool
	subs     observer.List[Change]
}

// New returns a store in the initial state: no song, hidden, stopped.
func New() *Store {
	return &Store{}
}

// State returns a snapshot of the current state.
func (s *Store) State() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for state changes and returns its remover.
func (s *Store) Subscribe(fn func(Change)) func() {
	return s.subs.Add(fn)
}

func (s *Store) dispatch(reduce func(*PlayerState)) {
	s.mu.Lock()
	prev := s.state
	reduce(&s.state)
	if s.state == prev {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, Change{Prev: prev, Next: s.state})
	if s.emitting {
		s.mu.Unlock()
		return
	}

	s.emitting = true
	for len(s.queue) > 0 {
		ch := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.subs.Emit(ch)
		s.mu.Lock()
	}
	s.emitting = false
	s.mu.Unlock()
}

// PlaySong makes song current and starts it. Selecting the current song
// again toggles playback instead. Either way the player becomes visible.
func (s *Store) PlaySong(song Song) {
	s.dispatch(func(st *PlayerState) {
		if st.CurrentSong != nil && st.CurrentSong.ID == song.ID {
			st.IsPlaying = !st.IsPlaying
			st.IsVisible = true
			return
		}
		st.CurrentSong = &song
		st.IsPlaying = true
		st.ShowLyrics = false
		st.IsVisible = true
	})
}

func (s *Store) PauseSong() {
	s.dispatch(func(st *PlayerState) {
		st.IsPlaying = false
	})
}

// TogglePlay flips IsPlaying and shows the player.
func (s *Store) TogglePlay() {
	s.dispatch(func(st *PlayerState) {
		st.IsPlaying = !st.IsPlaying
		st.IsVisible = true
	})
}

func (s *Store) ToggleRepeat() {
	s.dispatch(func(st *PlayerState) {
		st.IsRepeat = !st.IsRepeat
	})
}

func (s *Store) ToggleLyrics() {
	s.dispatch(func(st *PlayerState) {
		st.ShowLyrics = !st.ShowLyrics
	})
}

// Close hides the player and stops playback. The current song is kept so
// the player can be reopened on it.
func (s *Store) Close() {
	s.dispatch(func(st *PlayerState) {
		st.IsVisible = false
		st.IsPlaying = false
	})
}

// Reopen shows the player again on the current song without playing.
func (s *Store) Reopen() {
	s.dispatch(func(st *PlayerState) {
		if st.CurrentSong != nil {
			st.IsVisible = true
		}
	})
}

// SetPlayState records the actual play state reported by the controller.
func (s *Store) SetPlayState(playing bool) {
	s.dispatch(func(st *PlayerState) {
		st.IsPlaying = playing
	})
}

// Reset returns to the initial state.
func (s *Store) Reset() {
	s.dispatch(func(st *PlayerState) {
		*st = PlayerState{}
	})
}
