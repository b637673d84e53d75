package playback

import (
	"errors"

	"github.com/llehouerou/tunedeck/internal/media"
)

// Kind classifies playback failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidSource
	KindNoSourceLoaded
	KindLoadAborted
	KindNetworkOrCors
	KindDecodeUnsupported
	KindSourceNotFound
	KindPlaybackRejected
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSource:
		return "InvalidSource"
	case KindNoSourceLoaded:
		return "NoSourceLoaded"
	case KindLoadAborted:
		return "LoadAborted"
	case KindNetworkOrCors:
		return "NetworkOrCors"
	case KindDecodeUnsupported:
		return "DecodeUnsupported"
	case KindSourceNotFound:
		return "SourceNotFound"
	case KindPlaybackRejected:
		return "PlaybackRejected"
	default:
		return "Unknown"
	}
}

// Error is a classified playback failure. It is both returned by
// LoadSong/Play and delivered on the error stream.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidSource:
		return "No audio URL provided"
	case KindNoSourceLoaded:
		return "No audio loaded"
	case KindLoadAborted:
		return "Audio loading aborted."
	case KindNetworkOrCors:
		return "Network error while loading audio. The audio file might be blocked by CORS policy."
	case KindDecodeUnsupported:
		return "Audio decoding failed. Format may not be supported."
	case KindSourceNotFound:
		return "Audio source not found or access denied."
	case KindPlaybackRejected:
		return "Failed to play audio: " + causeMessage(e.Err)
	default:
		return "Error loading audio: " + causeMessage(e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.URL != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

func causeMessage(err error) string {
	var me *media.MediaError
	switch {
	case err == nil:
		return "Unknown error"
	case errors.As(err, &me):
		if me.Message == "" {
			return "Unknown error"
		}
		return me.Message
	default:
		return err.Error()
	}
}

// Sentinels for errors.Is checks by kind.
var (
	ErrInvalidSource     = &Error{Kind: KindInvalidSource}
	ErrNoSourceLoaded    = &Error{Kind: KindNoSourceLoaded}
	ErrLoadAborted       = &Error{Kind: KindLoadAborted}
	ErrNetworkOrCors     = &Error{Kind: KindNetworkOrCors}
	ErrDecodeUnsupported = &Error{Kind: KindDecodeUnsupported}
	ErrSourceNotFound    = &Error{Kind: KindSourceNotFound}
	ErrPlaybackRejected  = &Error{Kind: KindPlaybackRejected}
)

// ErrClosed is returned by blocking operations after Close.
var ErrClosed = errors.New("playback: controller closed")

// classify maps an element error to a kind.
func classify(me *media.MediaError, url string) *Error {
	e := &Error{URL: url}
	if me == nil {
		return e
	}
	e.Err = me
	switch me.Code {
	case media.ErrAborted:
		e.Kind = KindLoadAborted
	case media.ErrNetwork:
		e.Kind = KindNetworkOrCors
	case media.ErrDecode:
		e.Kind = KindDecodeUnsupported
	case media.ErrSrcNotSupported:
		e.Kind = KindSourceNotFound
	default:
		e.Kind = KindUnknown
	}
	return e
}
