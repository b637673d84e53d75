package playback

import (
	"context"
	"time"
)

// Service defines the playback contract consumed by the UI, MPRIS and the
// store adapter.
type Service interface {
	// Playback control
	LoadSong(ctx context.Context, url string) error
	Play(ctx context.Context) error
	Pause()
	TogglePlay()
	HardStop()

	// Settings
	SetVolume(v float64)
	SetCurrentTime(t time.Duration)
	SetRepeat(on bool)

	// State queries
	State() State
	IsPlaying() bool
	IsRepeat() bool
	IsLoading() bool
	CurrentURL() string
	CurrentTime() time.Duration
	Duration() time.Duration
	Volume() float64

	// Event subscription
	OnTimeUpdate(fn func(TimeUpdate)) func()
	OnLoaded(fn func(Loaded)) func()
	OnError(fn func(*Error)) func()
	OnPlayStateChange(fn func(bool)) func()
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
