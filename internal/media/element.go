// Package media defines the audio output resource owned by the playback
// controller and its implementations.
//
// An Element behaves like a browser media element: it holds at most one
// source, loads it asynchronously, and reports progress through events.
// Events are delivered in order on a dedicated goroutine, never from inside
// an Element method, so listeners may call back into whoever owns the
// element without re-entrancy concerns.
package media

import (
	"errors"
	"fmt"
	"time"
)

// Element is the single audio output resource.
type Element interface {
	// Source returns the current source locator, or "" when detached.
	Source() string
	// SetSource assigns a new source. It takes effect on the next Load.
	SetSource(url string)
	// RemoveSource detaches the source. It takes effect on the next Load.
	RemoveSource()
	// Load resets the element and starts loading the current source.
	// Events belonging to any previous load are dropped.
	Load()

	// Play starts or resumes playback. It fails when there is no source
	// or not enough data. EventPlay is emitted only when the element was
	// paused.
	Play() error
	// Pause pauses playback. EventPause is emitted only when it was playing.
	Pause()
	Paused() bool
	Ended() bool

	CurrentTime() time.Duration
	SetCurrentTime(d time.Duration)
	// Duration returns 0 while the duration is unknown.
	Duration() time.Duration

	Volume() float64
	SetVolume(v float64) error

	// Loop makes the element rewind to the start at natural end.
	// The Pause and Ended events are still emitted.
	Loop() bool
	SetLoop(on bool)

	ReadyState() ReadyState
	Error() *MediaError

	// AddListener registers fn for every event and returns its remover.
	AddListener(fn func(Event)) (remove func())

	Close() error
}

// Errors returned by Play.
var (
	ErrNoSource = errors.New("no source attached")
	ErrNotReady = errors.New("source not ready")
)

// ReadyState mirrors the HTML media element ready states.
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

func (r ReadyState) String() string {
	switch r {
	case HaveNothing:
		return "HaveNothing"
	case HaveMetadata:
		return "HaveMetadata"
	case HaveCurrentData:
		return "HaveCurrentData"
	case HaveFutureData:
		return "HaveFutureData"
	case HaveEnoughData:
		return "HaveEnoughData"
	default:
		return "Unknown"
	}
}

// EventType identifies an element event.
type EventType int

const (
	EventLoadStart EventType = iota
	EventLoadedMetadata
	EventCanPlayThrough
	EventPlay
	EventPause
	EventTimeUpdate
	EventEnded
	EventError
	EventEmptied
	EventAbort
)

func (t EventType) String() string {
	switch t {
	case EventLoadStart:
		return "loadstart"
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventCanPlayThrough:
		return "canplaythrough"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	case EventEmptied:
		return "emptied"
	case EventAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Event is delivered to element listeners. Err is set for EventError.
type Event struct {
	Type EventType
	Err  *MediaError

	gen uint64
}

// ErrorCode follows the HTML MediaError codes.
type ErrorCode int

const (
	ErrUnknown         ErrorCode = 0
	ErrAborted         ErrorCode = 1
	ErrNetwork         ErrorCode = 2
	ErrDecode          ErrorCode = 3
	ErrSrcNotSupported ErrorCode = 4
)

// MediaError describes why a load or playback failed.
type MediaError struct {
	Code    ErrorCode
	Message string
}

func (e *MediaError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("media error %d", e.Code)
	}
	return fmt.Sprintf("media error %d: %s", e.Code, e.Message)
}
