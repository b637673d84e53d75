// Package playlist holds the ordered songs the player steps through with
// next and previous.
package playlist

import (
	"slices"
	"sync"

	"github.com/llehouerou/tunedeck/internal/store"
)

// Queue is an ordered song list with a cursor. It is safe for concurrent
// use: the TUI and the MPRIS server both move the cursor.
type Queue struct {
	mu           sync.Mutex
	songs        []store.Song
	currentIndex int // -1 if nothing selected
}

// NewQueue creates a queue holding songs with nothing selected.
func NewQueue(songs ...store.Song) *Queue {
	return &Queue{
		songs:        slices.Clone(songs),
		currentIndex: -1,
	}
}

// Current returns a copy of the selected song, or nil if none.
func (q *Queue) Current() *store.Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentLocked()
}

func (q *Queue) currentLocked() *store.Song {
	if q.currentIndex < 0 || q.currentIndex >= len(q.songs) {
		return nil
	}
	s := q.songs[q.currentIndex]
	return &s
}

// CurrentIndex returns the selected position (-1 if none).
func (q *Queue) CurrentIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentIndex
}

// Next advances and returns the new song, or nil at the end.
func (q *Queue) Next() *store.Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.currentIndex >= len(q.songs)-1 {
		return nil
	}
	q.currentIndex++
	return q.currentLocked()
}

// Previous steps back and returns the new song, or nil at the start.
func (q *Queue) Previous() *store.Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.currentIndex <= 0 {
		return nil
	}
	q.currentIndex--
	return q.currentLocked()
}

// HasNext returns true if there's a song after the current one.
func (q *Queue) HasNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentIndex < len(q.songs)-1
}

func (q *Queue) HasPrevious() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentIndex > 0
}

// JumpTo selects the song at index and returns it, or nil if invalid.
func (q *Queue) JumpTo(index int) *store.Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.songs) {
		return nil
	}
	q.currentIndex = index
	return q.currentLocked()
}

// Add appends songs without moving the cursor.
func (q *Queue) Add(songs ...store.Song) {
	q.mu.Lock()
	q.songs = append(q.songs, songs...)
	q.mu.Unlock()
}

// Replace swaps the contents and selects the first song, which it returns.
func (q *Queue) Replace(songs ...store.Song) *store.Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.songs = slices.Clone(songs)
	q.currentIndex = -1
	if len(songs) == 0 {
		return nil
	}
	q.currentIndex = 0
	return q.currentLocked()
}

// Songs returns a copy of the queued songs.
func (q *Queue) Songs() []store.Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.songs)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.songs)
}

func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}
