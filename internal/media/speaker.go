package media

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultTimeUpdateInterval matches the cadence browsers use for timeupdate.
const DefaultTimeUpdateInterval = 250 * time.Millisecond

var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// initSpeaker opens the audio device once, at the first decoded format's rate.
func initSpeaker(rate beep.SampleRate) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerInitialized {
		return speakerSampleRate, nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return 0, err
	}
	speakerSampleRate = rate
	speakerInitialized = true
	return rate, nil
}

// SpeakerElement plays sources through the system audio device.
type SpeakerElement struct {
	d      *dispatcher
	client *http.Client
	logger *log.Logger
	tick   time.Duration

	mu       sync.Mutex
	src      string
	ready    ReadyState
	paused   bool
	ended    bool
	loop     bool
	level    float64
	err      *MediaError
	cancel   context.CancelFunc
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	attached bool
	stopTick chan struct{}
}

// SpeakerOption configures a SpeakerElement.
type SpeakerOption func(*SpeakerElement)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) SpeakerOption {
	return func(e *SpeakerElement) { e.client = c }
}

// WithTimeUpdateInterval sets how often EventTimeUpdate fires while playing.
func WithTimeUpdateInterval(d time.Duration) SpeakerOption {
	return func(e *SpeakerElement) {
		if d > 0 {
			e.tick = d
		}
	}
}

// WithSpeakerLogger sets the element's logger.
func WithSpeakerLogger(l *log.Logger) SpeakerOption {
	return func(e *SpeakerElement) { e.logger = l }
}

// NewSpeakerElement creates an element with no source.
func NewSpeakerElement(opts ...SpeakerOption) *SpeakerElement {
	e := &SpeakerElement{
		d:      newDispatcher(),
		client: http.DefaultClient,
		logger: log.Default(),
		tick:   DefaultTimeUpdateInterval,
		paused: true,
		level:  1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *SpeakerElement) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *SpeakerElement) SetSource(url string) {
	e.mu.Lock()
	e.src = url
	e.mu.Unlock()
}

func (e *SpeakerElement) RemoveSource() {
	e.mu.Lock()
	e.src = ""
	e.mu.Unlock()
}

func (e *SpeakerElement) Load() {
	e.mu.Lock()
	defer e.mu.Unlock()

	aborted := e.cancel != nil
	e.teardownLocked()
	gen := e.d.advance()
	if aborted {
		e.d.post(EventAbort)
	}

	if e.src == "" {
		e.d.post(EventEmptied)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.d.postLoad(gen, EventLoadStart, nil)
	go e.fetch(ctx, gen, e.src)
}

// teardownLocked stops output and releases the current stream.
func (e *SpeakerElement) teardownLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.stopTickerLocked()
	if e.attached {
		speaker.Clear()
		e.attached = false
	}
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	e.ctrl = nil
	e.volume = nil
	e.ready = HaveNothing
	e.paused = true
	e.ended = false
	e.err = nil
}

func (e *SpeakerElement) fetch(ctx context.Context, gen uint64, loc string) {
	src, err := openSource(ctx, e.client, loc)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.fail(gen, err.(*MediaError))
		return
	}

	streamer, format, err := decode(src)
	if err != nil {
		src.rsc.Close()
		e.fail(gen, &MediaError{Code: ErrDecode, Message: err.Error()})
		return
	}

	rate, err := initSpeaker(format.SampleRate)
	if err != nil {
		streamer.Close()
		e.fail(gen, &MediaError{Code: ErrUnknown, Message: "audio output unavailable: " + err.Error()})
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil || e.d.current() != gen {
		streamer.Close()
		return
	}

	var out beep.Streamer = streamer
	if format.SampleRate != rate {
		out = beep.Resample(4, format.SampleRate, rate, streamer)
	}
	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: out, Paused: true}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2}
	e.applyVolumeLocked()
	e.ready = HaveEnoughData
	e.cancel = nil

	e.logger.Debug("source decoded", "src", loc, "rate", format.SampleRate, "duration", e.durationLocked())
	e.d.postLoad(gen, EventLoadedMetadata, nil)
	e.d.postLoad(gen, EventCanPlayThrough, nil)
}

func (e *SpeakerElement) fail(gen uint64, err *MediaError) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.d.current() != gen {
		return
	}
	e.logger.Debug("load failed", "code", err.Code, "err", err.Message)
	e.cancel = nil
	e.err = err
	e.ready = HaveNothing
	e.d.postLoad(gen, EventError, err)
}

func (e *SpeakerElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.src == "" {
		return ErrNoSource
	}
	if e.streamer == nil || e.ready < HaveFutureData {
		return ErrNotReady
	}
	if !e.paused {
		return nil
	}

	if e.ended {
		e.ended = false
		if !e.loop {
			_ = e.streamer.Seek(0)
		}
	}

	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()

	if !e.attached {
		gen := e.d.current()
		speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
			// Runs on the speaker goroutine with the speaker locked.
			go e.finish(gen)
		})))
		e.attached = true
	}

	e.paused = false
	e.startTickerLocked()
	e.d.post(EventPlay)
	return nil
}

// finish handles the end of the stream. A decoder that stopped on an
// error reports EventError instead of EventEnded.
func (e *SpeakerElement) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.d.current() != gen || e.streamer == nil {
		return
	}

	e.attached = false
	e.stopTickerLocked()

	if err := e.streamer.Err(); err != nil {
		e.logger.Debug("decode failed mid-stream", "src", e.src, "err", err)
		e.err = &MediaError{Code: ErrDecode, Message: err.Error()}
		if !e.paused {
			e.paused = true
			e.d.post(EventPause)
		}
		e.d.postLoad(gen, EventError, e.err)
		return
	}

	e.ended = true
	if e.loop {
		_ = e.streamer.Seek(0)
	}
	if !e.paused {
		e.paused = true
		e.d.post(EventPause)
	}
	e.d.postLoad(gen, EventEnded, nil)
}

func (e *SpeakerElement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return
	}
	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = true
		speaker.Unlock()
	}
	e.paused = true
	e.stopTickerLocked()
	e.d.post(EventPause)
}

func (e *SpeakerElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *SpeakerElement) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

func (e *SpeakerElement) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(pos)
}

func (e *SpeakerElement) SetCurrentTime(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return
	}
	n := min(max(e.format.SampleRate.N(d), 0), e.streamer.Len())
	speaker.Lock()
	err := e.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		e.logger.Debug("seek failed", "pos", d, "err", err)
		return
	}
	if n < e.streamer.Len() {
		e.ended = false
	}
}

func (e *SpeakerElement) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durationLocked()
}

func (e *SpeakerElement) durationLocked() time.Duration {
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len())
}

func (e *SpeakerElement) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

func (e *SpeakerElement) SetVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = v
	e.applyVolumeLocked()
	return nil
}

func (e *SpeakerElement) applyVolumeLocked() {
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.volume.Volume = levelToVolume(e.level)
	e.volume.Silent = e.level <= 0
	speaker.Unlock()
}

func (e *SpeakerElement) Loop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop
}

func (e *SpeakerElement) SetLoop(on bool) {
	e.mu.Lock()
	e.loop = on
	e.mu.Unlock()
}

func (e *SpeakerElement) ReadyState() ReadyState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *SpeakerElement) Error() *MediaError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *SpeakerElement) AddListener(fn func(Event)) func() {
	return e.d.listeners.Add(fn)
}

// Close stops playback and the event dispatcher.
func (e *SpeakerElement) Close() error {
	e.mu.Lock()
	e.src = ""
	e.teardownLocked()
	e.mu.Unlock()
	e.d.close()
	return nil
}

func (e *SpeakerElement) startTickerLocked() {
	if e.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	e.stopTick = stop
	gen := e.d.current()
	go func() {
		t := time.NewTicker(e.tick)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				e.d.postLoad(gen, EventTimeUpdate, nil)
			case <-stop:
				return
			}
		}
	}()
}

func (e *SpeakerElement) stopTickerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

// Verify SpeakerElement implements Element at compile time.
var _ Element = (*SpeakerElement)(nil)
