// Package playerctl keeps the player store and the playback controller in
// step: store transitions become controller calls, and controller events
// flow back into the store.
package playerctl

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/tunedeck/internal/config"
	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/store"
)

// UnmuteVolume is restored when unmuting from zero.
const UnmuteVolume = 0.7

// ErrNoSong is returned by Retry when there is nothing to reload.
var ErrNoSong = errors.New("no song selected")

// Adapter binds a store to a playback service.
type Adapter struct {
	store    *store.Store
	ctrl     playback.Service
	logger   *log.Logger
	debounce time.Duration

	mu         sync.Mutex
	volume     float64
	muted      bool
	lastErr    *playback.Error
	loadCancel context.CancelFunc
	loadSeq    uint64
	playTimer  *time.Timer
	closed     bool

	unsubs []func()
	wg     sync.WaitGroup
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDebounce sets the delay before a play/pause store change reaches
// the controller.
func WithDebounce(d time.Duration) Option {
	return func(a *Adapter) {
		if d >= 0 {
			a.debounce = d
		}
	}
}

// WithVolume sets the volume applied after each load.
func WithVolume(v float64) Option {
	return func(a *Adapter) {
		a.volume = min(max(v, 0), 1)
	}
}

// New wires st and ctrl together. Close releases the wiring.
func New(st *store.Store, ctrl playback.Service, opts ...Option) *Adapter {
	a := &Adapter{
		store:    st,
		ctrl:     ctrl,
		logger:   log.New(io.Discard),
		debounce: config.DefaultPlayDebounce,
		volume:   UnmuteVolume,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.unsubs = []func(){
		st.Subscribe(a.onStoreChange),
		ctrl.OnPlayStateChange(a.onPlayState),
		ctrl.OnError(a.onError),
		ctrl.OnLoaded(a.onLoaded),
	}
	return a
}

func (a *Adapter) onStoreChange(ch store.Change) {
	next := ch.Next

	if ch.Closed() {
		a.cancelPending()
		a.logger.Debug("player closed, hard stop")
		a.ctrl.HardStop()
		return
	}
	if !next.IsVisible || !next.CurrentSong.Playable() {
		return
	}

	if ch.SongChanged() || ch.Opened() {
		a.startLoad(*next.CurrentSong, next.IsRepeat)
		return
	}

	if ch.Prev.IsRepeat != next.IsRepeat {
		a.ctrl.SetRepeat(next.IsRepeat)
	}
	if ch.Prev.IsPlaying != next.IsPlaying {
		a.schedulePlayState()
	}
}

// startLoad loads song and plays it if the store still wants playback.
// A newer song cancels the wait of an older one.
func (a *Adapter) startLoad(song store.Song, repeat bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.loadCancel != nil {
		a.loadCancel()
	}
	a.stopTimerLocked()
	ctx, cancel := context.WithCancel(context.Background())
	a.loadCancel = cancel
	a.loadSeq++
	seq := a.loadSeq
	a.lastErr = nil
	volume := a.effectiveVolumeLocked()
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		defer cancel()

		a.logger.Debug("loading song", "id", song.ID, "title", song.Title, "url", song.AudioURL)
		if err := a.ctrl.LoadSong(ctx, song.AudioURL); err != nil {
			if ctx.Err() == nil {
				a.logger.Debug("load failed", "id", song.ID, "err", err)
			}
			return
		}
		if !a.current(seq) {
			return
		}

		a.ctrl.SetVolume(volume)
		a.ctrl.SetRepeat(repeat)

		if a.store.State().IsPlaying {
			if err := a.ctrl.Play(ctx); err != nil {
				a.logger.Debug("auto-play failed", "id", song.ID, "err", err)
			}
		}
	}()
}

func (a *Adapter) current(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed && a.loadSeq == seq
}

// schedulePlayState applies the store's IsPlaying after the debounce
// window. A newer change restarts the window.
func (a *Adapter) schedulePlayState() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.stopTimerLocked()
	a.playTimer = time.AfterFunc(a.debounce, a.applyPlayState)
}

func (a *Adapter) applyPlayState() {
	st := a.store.State()
	if !st.IsVisible || !st.CurrentSong.Playable() {
		return
	}
	if st.IsPlaying == a.ctrl.IsPlaying() {
		return
	}

	if !st.IsPlaying {
		a.ctrl.Pause()
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	if err := a.ctrl.Play(context.Background()); err != nil {
		a.logger.Debug("play failed", "err", err)
	}
}

func (a *Adapter) stopTimerLocked() {
	if a.playTimer != nil {
		a.playTimer.Stop()
		a.playTimer = nil
	}
}

func (a *Adapter) cancelPending() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadCancel != nil {
		a.loadCancel()
		a.loadCancel = nil
	}
	a.loadSeq++
	a.stopTimerLocked()
}

func (a *Adapter) onPlayState(playing bool) {
	if a.store.State().IsPlaying != playing {
		a.store.SetPlayState(playing)
	}
}

func (a *Adapter) onError(err *playback.Error) {
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
}

func (a *Adapter) onLoaded(playback.Loaded) {
	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()
}

// LastError returns the error shown to the user, nil once a load succeeds.
func (a *Adapter) LastError() *playback.Error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// DismissError hides the current error without retrying.
func (a *Adapter) DismissError() {
	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()
}

// Retry reloads the current song and plays it.
func (a *Adapter) Retry(ctx context.Context) error {
	song := a.store.State().CurrentSong
	if !song.Playable() {
		return ErrNoSong
	}

	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()

	if err := a.ctrl.LoadSong(ctx, song.AudioURL); err != nil {
		return err
	}
	if err := a.ctrl.Play(ctx); err != nil {
		return err
	}
	a.store.SetPlayState(true)
	return nil
}

// TogglePlay retries after an error, otherwise flips the store's play
// state.
func (a *Adapter) TogglePlay() {
	if a.LastError() == nil {
		a.store.TogglePlay()
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		if err := a.Retry(context.Background()); err != nil {
			a.logger.Debug("retry failed", "err", err)
		}
	}()
}

// SetVolume sets and remembers the volume. Zero counts as muted.
func (a *Adapter) SetVolume(v float64) {
	v = min(max(v, 0), 1)
	a.mu.Lock()
	a.volume = v
	a.muted = v == 0
	a.mu.Unlock()
	a.ctrl.SetVolume(v)
}

// ToggleMute mutes, or restores a fixed audible volume.
func (a *Adapter) ToggleMute() {
	a.mu.Lock()
	if a.muted {
		a.muted = false
		a.volume = UnmuteVolume
	} else {
		a.muted = true
		a.volume = 0
	}
	v := a.volume
	a.mu.Unlock()
	a.ctrl.SetVolume(v)
}

func (a *Adapter) effectiveVolumeLocked() float64 {
	if a.muted {
		return 0
	}
	return a.volume
}

// Volume returns the remembered volume.
func (a *Adapter) Volume() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.effectiveVolumeLocked()
}

func (a *Adapter) Muted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted
}

// Seek moves the position by delta, clamped to the track.
func (a *Adapter) Seek(delta time.Duration) {
	dur := a.ctrl.Duration()
	if dur <= 0 {
		return
	}
	pos := min(max(a.ctrl.CurrentTime()+delta, 0), dur)
	a.ctrl.SetCurrentTime(pos)
}

// Close detaches from the store and controller and waits for background
// work to finish.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.loadCancel != nil {
		a.loadCancel()
		a.loadCancel = nil
	}
	a.stopTimerLocked()
	unsubs := a.unsubs
	a.unsubs = nil
	a.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	a.wg.Wait()
}
