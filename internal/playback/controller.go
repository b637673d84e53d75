// Package playback mediates every access to the single audio output
// element so that overlapping UI commands never desynchronize the
// session from what is actually audible.
package playback

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/llehouerou/tunedeck/internal/media"
)

// Verify Controller implements Service at compile time.
var _ Service = (*Controller)(nil)

// loadOp is one in-flight load. done is closed on settlement; err is
// readable after that.
type loadOp struct {
	url     string
	epoch   uint64
	done    chan struct{}
	err     *Error
	settled bool
}

// Controller owns the media element and the playback session.
type Controller struct {
	el             media.Element
	logger         *log.Logger
	throttleWindow time.Duration
	resetGrace     time.Duration
	initialVolume  *float64

	mu       sync.Mutex
	url      string
	playing  bool
	repeat   bool
	failed   bool
	epoch    uint64
	pending  *loadOp
	settleAt time.Time
	limiter  *rate.Limiter
	closed   bool

	bus    bus
	detach func()

	subsMu sync.Mutex
	subs   []*Subscription
}

// New creates a controller that takes ownership of el.
func New(el media.Element, opts ...Option) *Controller {
	c := &Controller{
		el:             el,
		logger:         log.New(io.Discard),
		throttleWindow: DefaultThrottleWindow,
		resetGrace:     DefaultResetGrace,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limiter = c.newLimiter()

	if c.initialVolume != nil {
		c.SetVolume(*c.initialVolume)
	}
	el.SetLoop(c.repeat)
	c.detach = el.AddListener(c.handleEvent)
	return c
}

func (c *Controller) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(c.throttleWindow), 1)
}

// LoadSong loads url into the element and waits until it can play through.
// Loads are strictly queued: a call made while another load is in flight
// waits for it to settle first. ctx bounds only the caller's wait.
func (c *Controller) LoadSong(ctx context.Context, url string) error {
	if url == "" {
		err := &Error{Kind: KindInvalidSource}
		c.logger.Debug("load rejected", "err", err)
		c.bus.errs.Emit(err)
		return err
	}

	c.mu.Lock()
	if err := c.waitIdleLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	if url == c.url && !c.failed && c.el.Source() != "" && c.el.ReadyState() >= media.HaveCurrentData {
		c.mu.Unlock()
		c.logger.Debug("load skipped, already loaded", "url", url)
		return nil
	}

	op := c.startLoadLocked(url)
	c.mu.Unlock()

	return c.await(ctx, op)
}

// waitIdleLocked waits out the teardown grace window and any in-flight
// load. c.mu is held on entry and on return, released while waiting.
func (c *Controller) waitIdleLocked(ctx context.Context) error {
	for {
		if c.closed {
			return ErrClosed
		}
		if wait := time.Until(c.settleAt); wait > 0 {
			c.mu.Unlock()
			err := sleep(ctx, wait)
			c.mu.Lock()
			if err != nil {
				return err
			}
			continue
		}
		if op := c.pending; op != nil {
			c.logger.Debug("load queued behind in-flight load", "pending", op.url)
			c.mu.Unlock()
			select {
			case <-op.done:
			case <-ctx.Done():
				c.mu.Lock()
				return ctx.Err()
			}
			c.mu.Lock()
			continue
		}
		return nil
	}
}

func (c *Controller) startLoadLocked(url string) *loadOp {
	c.epoch++
	op := &loadOp{url: url, epoch: c.epoch, done: make(chan struct{})}
	c.pending = op
	c.url = url
	c.failed = false

	c.el.Pause()
	c.el.SetCurrentTime(0)
	c.el.SetSource(url)
	c.el.Load()

	c.logger.Debug("loading", "url", url, "epoch", op.epoch)
	return op
}

func (c *Controller) await(ctx context.Context, op *loadOp) error {
	select {
	case <-op.done:
		if op.err != nil {
			return op.err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settleLocked resolves op. It returns what must be emitted once the lock
// is released; superseded ops emit nothing.
func (c *Controller) settleLocked(op *loadOp, err *Error) (*Loaded, *Error) {
	if op.settled {
		return nil, nil
	}
	op.settled = true
	op.err = err
	if c.pending == op {
		c.pending = nil
	}
	close(op.done)

	if op.epoch != c.epoch {
		c.logger.Debug("stale load settled", "url", op.url, "epoch", op.epoch)
		return nil, nil
	}
	if err != nil {
		c.failed = true
		return nil, err
	}
	return &Loaded{URL: op.url, Duration: c.el.Duration()}, nil
}

func (c *Controller) emitSettled(loaded *Loaded, err *Error) {
	if loaded != nil {
		c.logger.Debug("loaded", "url", loaded.URL, "duration", loaded.Duration)
		c.bus.loaded.Emit(*loaded)
	}
	if err != nil {
		c.logger.Debug("load failed", "url", err.URL, "kind", err.Kind, "err", err.Err)
		c.bus.errs.Emit(err)
	}
}

// Play starts playback of the remembered source, reloading it first when a
// hard stop detached it. Calls within the throttle window of the previous
// play/pause resolve without effect.
func (c *Controller) Play(ctx context.Context) error {
	return c.play(ctx, true, 0)
}

// play implements Play. When guard is non-zero, the call is abandoned
// if the session epoch moved away from it.
func (c *Controller) play(ctx context.Context, throttled bool, guard uint64) error {
	c.mu.Lock()
	for {
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if guard != 0 && c.epoch != guard {
			c.mu.Unlock()
			return nil
		}
		if c.url == "" || c.failed {
			err := &Error{Kind: KindNoSourceLoaded, URL: c.url}
			c.mu.Unlock()
			c.bus.errs.Emit(err)
			return err
		}
		if time.Until(c.settleAt) > 0 || c.pending != nil {
			op := c.pending
			if err := c.waitIdleLocked(ctx); err != nil {
				c.mu.Unlock()
				return err
			}
			if op != nil && op.err != nil {
				c.mu.Unlock()
				return op.err
			}
			continue
		}
		if c.el.Source() == "" {
			url := c.url
			c.mu.Unlock()
			c.logger.Debug("source detached, reloading", "url", url)
			if err := c.LoadSong(ctx, url); err != nil {
				return err
			}
			c.mu.Lock()
			continue
		}
		break
	}

	if c.playing && !c.el.Paused() {
		c.mu.Unlock()
		return nil
	}
	if throttled && !c.limiter.Allow() {
		c.mu.Unlock()
		c.logger.Debug("play throttled")
		return nil
	}

	if err := c.el.Play(); err != nil {
		c.playing = false
		perr := &Error{Kind: KindPlaybackRejected, URL: c.url, Err: err}
		c.mu.Unlock()
		c.logger.Debug("play rejected", "url", perr.URL, "err", err)
		c.bus.playState.Emit(false)
		c.bus.errs.Emit(perr)
		return perr
	}

	changed := !c.playing
	c.playing = true
	c.mu.Unlock()

	if changed {
		c.bus.playState.Emit(true)
	}
	return nil
}

// Pause pauses playback. It shares the throttle window with Play.
func (c *Controller) Pause() {
	c.mu.Lock()
	if !c.limiter.Allow() {
		c.mu.Unlock()
		c.logger.Debug("pause throttled")
		return
	}
	if c.el.Paused() {
		c.mu.Unlock()
		return
	}
	c.el.Pause()
	changed := c.playing
	c.playing = false
	c.mu.Unlock()

	if changed {
		c.bus.playState.Emit(false)
	}
}

// TogglePlay dispatches to Pause or Play without waiting for Play.
// Play failures are reported on the error stream.
func (c *Controller) TogglePlay() {
	if c.IsPlaying() {
		c.Pause()
		return
	}
	go func() {
		if err := c.Play(context.Background()); err != nil {
			c.logger.Debug("toggle play failed", "err", err)
		}
	}()
}

// SetVolume clamps v to [0,1]. Failures are logged and otherwise ignored.
func (c *Controller) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = min(max(v, 0), 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.el.Volume() == v {
		return
	}
	if err := c.el.SetVolume(v); err != nil {
		c.logger.Warn("set volume failed", "volume", v, "err", err)
	}
}

// SetCurrentTime seeks when the element knows the duration.
func (c *Controller) SetCurrentTime(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.el.Duration() <= 0 {
		return
	}
	c.el.SetCurrentTime(t)
}

// SetRepeat sets the repeat flag. It never changes the play state.
func (c *Controller) SetRepeat(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = on
	c.el.SetLoop(on)
}

// HardStop tears the element down to an empty source while remembering
// the url, so a later Play reloads it. It always emits exactly one
// play-state-change(false). Any in-flight load is superseded.
func (c *Controller) HardStop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.el.Pause()
	c.playing = false
	c.epoch++
	if op := c.pending; op != nil {
		c.settleLocked(op, &Error{Kind: KindLoadAborted, URL: op.url})
	}
	c.el.RemoveSource()
	c.el.Load()
	c.settleAt = time.Now().Add(c.resetGrace)
	c.limiter = c.newLimiter()
	c.logger.Debug("hard stop", "url", c.url, "epoch", c.epoch)
	c.mu.Unlock()

	c.bus.playState.Emit(false)
}

// handleEvent runs on the element's dispatch goroutine.
func (c *Controller) handleEvent(ev media.Event) {
	switch ev.Type {
	case media.EventTimeUpdate:
		c.bus.timeUpdate.Emit(TimeUpdate{
			Position: c.el.CurrentTime(),
			Duration: c.el.Duration(),
		})
	case media.EventPlay, media.EventPause:
		c.syncPlaying()
	case media.EventCanPlayThrough:
		c.mu.Lock()
		var loaded *Loaded
		if op := c.pending; op != nil && c.el.ReadyState() >= media.HaveFutureData {
			loaded, _ = c.settleLocked(op, nil)
		}
		c.mu.Unlock()
		c.emitSettled(loaded, nil)
	case media.EventError:
		c.handleError()
	case media.EventEnded:
		c.handleEnded()
	default:
		c.logger.Debug("element event", "type", ev.Type)
	}
}

func (c *Controller) syncPlaying() {
	c.mu.Lock()
	playing := !c.el.Paused() && c.el.Source() != ""
	changed := playing != c.playing
	c.playing = playing
	c.mu.Unlock()

	if changed {
		c.bus.playState.Emit(playing)
	}
}

func (c *Controller) handleError() {
	c.mu.Lock()
	me := c.el.Error()
	if me == nil {
		// Reported by a load that was reset since.
		c.mu.Unlock()
		return
	}
	err := classify(me, c.url)

	if op := c.pending; op != nil {
		_, emit := c.settleLocked(op, err)
		c.mu.Unlock()
		c.emitSettled(nil, emit)
		return
	}

	c.failed = true
	c.mu.Unlock()
	c.logger.Debug("playback error", "url", err.URL, "kind", err.Kind, "err", err.Err)
	c.bus.errs.Emit(err)
}

func (c *Controller) handleEnded() {
	c.mu.Lock()
	if c.repeat {
		epoch := c.epoch
		c.mu.Unlock()
		go c.restart(epoch)
		return
	}
	changed := c.playing
	c.playing = false
	c.mu.Unlock()

	if changed {
		c.bus.playState.Emit(false)
	}
}

// restart replays from the start after a natural end with repeat on.
// It is a no-op once a hard stop or a new load has moved the epoch.
func (c *Controller) restart(epoch uint64) {
	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.el.SetCurrentTime(0)
	c.mu.Unlock()

	if err := c.play(context.Background(), false, epoch); err != nil {
		c.logger.Debug("repeat restart failed", "err", err)
	}
}

// CurrentTime returns the playback position.
func (c *Controller) CurrentTime() time.Duration {
	return c.el.CurrentTime()
}

// Duration returns the duration of the loaded source, 0 when unknown.
func (c *Controller) Duration() time.Duration {
	return c.el.Duration()
}

// Volume returns the effective volume.
func (c *Controller) Volume() float64 {
	return c.el.Volume()
}

func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Controller) IsRepeat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repeat
}

func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// CurrentURL returns the remembered source, kept across hard stops.
func (c *Controller) CurrentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// State derives the session state from the flags and the element.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.failed:
		return StateError
	case c.pending != nil:
		return StateLoading
	case c.el.Source() == "":
		return StateEmpty
	case c.playing:
		return StatePlaying
	case c.el.Ended():
		return StateEnded
	case c.el.ReadyState() < media.HaveFutureData:
		return StateLoading
	case c.el.CurrentTime() == 0:
		return StateReady
	default:
		return StatePaused
	}
}

// OnTimeUpdate registers fn for progress ticks and returns its remover.
func (c *Controller) OnTimeUpdate(fn func(TimeUpdate)) func() {
	return c.bus.timeUpdate.Add(fn)
}

// OnLoaded registers fn for successful loads and returns its remover.
func (c *Controller) OnLoaded(fn func(Loaded)) func() {
	return c.bus.loaded.Add(fn)
}

// OnError registers fn for load and playback failures and returns its
// remover.
func (c *Controller) OnError(fn func(*Error)) func() {
	return c.bus.errs.Add(fn)
}

// OnPlayStateChange registers fn for play-state transitions and returns
// its remover.
func (c *Controller) OnPlayStateChange(fn func(bool)) func() {
	return c.bus.playState.Add(fn)
}

// Subscribe creates a channel-based event subscription.
func (c *Controller) Subscribe() *Subscription {
	sub := newSubscription()
	sub.unsubs = []func(){
		c.OnTimeUpdate(sub.sendTimeUpdate),
		c.OnLoaded(sub.sendLoaded),
		c.OnError(sub.sendError),
		c.OnPlayStateChange(sub.sendPlayState),
	}
	sub.onClose = c.removeSubscription

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		sub.Close()
		return sub
	}

	c.subsMu.Lock()
	c.subs = append(c.subs, sub)
	c.subsMu.Unlock()
	return sub
}

func (c *Controller) removeSubscription(sub *Subscription) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// Close stops playback, closes every subscription and the element.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.playing = false
	c.epoch++
	if op := c.pending; op != nil {
		c.settleLocked(op, &Error{Kind: KindLoadAborted, URL: op.url})
	}
	c.mu.Unlock()

	c.detach()

	c.subsMu.Lock()
	subs := c.subs
	c.subs = nil
	c.subsMu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}

	c.bus.clear()
	return c.el.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
