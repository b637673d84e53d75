package app

import (
	"time"

	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/store"
)

// TickMsg redraws the clock-dependent parts of the view.
type TickMsg time.Time

// TimeUpdateMsg wraps a controller time update.
type TimeUpdateMsg playback.TimeUpdate

// LoadedMsg is sent when a song finished loading.
type LoadedMsg playback.Loaded

// PlaybackErrorMsg carries an error reported by the controller.
type PlaybackErrorMsg struct {
	Err *playback.Error
}

// PlayStateMsg is sent when the controller starts or stops playing.
type PlayStateMsg bool

// StoreChangedMsg is sent after every player store transition.
type StoreChangedMsg store.Change

// ServiceClosedMsg is sent when the controller subscription ends.
type ServiceClosedMsg struct{}

// RetryDoneMsg reports the outcome of a retry.
type RetryDoneMsg struct {
	Err error
}
