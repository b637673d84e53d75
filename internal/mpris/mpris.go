//go:build linux

// Package mpris exposes the player on the session bus so desktop media
// keys and widgets can drive it.
package mpris

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/playerctl"
	"github.com/llehouerou/tunedeck/internal/playlist"
	"github.com/llehouerou/tunedeck/internal/store"
)

const busName = "tunedeck"

// Adapter connects the player to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	logger *log.Logger
	sub    *playback.Subscription
	unsub  func()
	done   chan struct{}
}

// New creates and starts an MPRIS server for the player. queue may be nil.
func New(ctrl playback.Service, pc *playerctl.Adapter, st *store.Store, queue *playlist.Queue, logger *log.Logger) (*Adapter, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if queue == nil {
		queue = playlist.NewQueue()
	}

	player := &playerAdapter{ctrl: ctrl, pc: pc, store: st, queue: queue}
	srv := server.NewServer(busName, &rootAdapter{}, player)

	a := &Adapter{
		server: srv,
		events: events.NewEventHandler(srv),
		logger: logger,
		sub:    ctrl.Subscribe(),
		done:   make(chan struct{}),
	}

	go func() {
		if err := srv.Listen(); err != nil {
			logger.Warn("mpris server stopped", "err", err)
		}
	}()
	a.unsub = st.Subscribe(a.onStoreChange)
	go a.forward()

	return a, nil
}

// forward turns controller events into PropertiesChanged signals.
func (a *Adapter) forward() {
	for {
		select {
		case <-a.sub.PlayStateChanged:
			a.emit("play state", a.events.Player.OnPlayPause)
		case <-a.sub.Loaded:
			a.emit("metadata", a.events.Player.OnTitle)
		case <-a.sub.TimeUpdated:
		case <-a.sub.Errors:
			a.emit("play state", a.events.Player.OnPlayPause)
		case <-a.sub.Done:
			return
		case <-a.done:
			return
		}
	}
}

func (a *Adapter) onStoreChange(ch store.Change) {
	if ch.SongChanged() {
		a.emit("metadata", a.events.Player.OnTitle)
	}
	if ch.Prev.IsRepeat != ch.Next.IsRepeat {
		a.emit("loop status", a.events.Player.OnOptions)
	}
}

func (a *Adapter) emit(what string, fn func() error) {
	if err := fn(); err != nil {
		a.logger.Debug("mpris signal failed", "signal", what, "err", err)
	}
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	a.unsub()
	a.sub.Close()
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Tunedeck", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the loop
// status extension. Commands go through the store so the TUI sees them.
type playerAdapter struct {
	ctrl  playback.Service
	pc    *playerctl.Adapter
	store *store.Store
	queue *playlist.Queue
}

func (p *playerAdapter) Next() error {
	if song := p.queue.Next(); song != nil {
		p.store.PlaySong(*song)
	}
	return nil
}

func (p *playerAdapter) Previous() error {
	if song := p.queue.Previous(); song != nil {
		p.store.PlaySong(*song)
	}
	return nil
}

func (p *playerAdapter) Pause() error {
	p.store.PauseSong()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.pc.TogglePlay()
	return nil
}

// Stop closes the player, which hard-stops playback.
func (p *playerAdapter) Stop() error {
	p.store.Close()
	return nil
}

func (p *playerAdapter) Play() error {
	st := p.store.State()
	if !st.CurrentSong.Playable() || (st.IsPlaying && st.IsVisible) {
		return nil
	}
	p.pc.TogglePlay()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.pc.Seek(time.Duration(offset) * time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	song := p.store.State().CurrentSong
	if song == nil || trackID != formatTrackID(song.ID) {
		return nil // Stale request for another track
	}
	p.ctrl.SetCurrentTime(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	if !p.store.State().IsVisible {
		return types.PlaybackStatusStopped, nil
	}
	switch p.ctrl.State() {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StateLoading, playback.StateReady, playback.StatePaused, playback.StateEnded:
		return types.PlaybackStatusPaused, nil
	case playback.StateEmpty, playback.StateError:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	song := p.store.State().CurrentSong
	if song == nil {
		return types.Metadata{}, nil
	}

	length := song.Duration
	if p.ctrl.CurrentURL() == song.AudioURL && p.ctrl.Duration() > 0 {
		length = p.ctrl.Duration()
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(song.ID)),
		Length:  types.Microseconds(length.Microseconds()),
		Title:   song.Title,
		Url:     song.AudioURL,
		ArtUrl:  artURL(song.CoverArt),
		AsText:  song.Lyrics,
	}
	if song.Artist != "" {
		meta.Artist = []string{song.Artist}
	}
	if song.Genre != "" {
		meta.Genre = []string{song.Genre}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.pc.Volume(), nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.pc.SetVolume(v)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.ctrl.CurrentTime().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.queue.HasNext(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.queue.HasPrevious(), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.store.State().CurrentSong.Playable(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.ctrl.State().CanControl(), nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.ctrl.Duration() > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
// Repeat loops the current song, so it maps to Track.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	if p.store.State().IsRepeat {
		return types.LoopStatusTrack, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	want := status != types.LoopStatusNone
	if p.store.State().IsRepeat != want {
		p.store.ToggleRepeat()
	}
	return nil
}

func artURL(cover string) string {
	switch {
	case cover == "":
		return ""
	case strings.Contains(cover, "://"):
		return cover
	default:
		return "file://" + cover
	}
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
