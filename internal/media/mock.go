package media

import (
	"sync"
	"time"
)

// Mock is an in-memory Element for tests. Loads never complete on their
// own unless AutoReady or AutoFail is set; tests drive them with the
// Simulate helpers.
type Mock struct {
	d *dispatcher

	mu        sync.Mutex
	src       string
	ready     ReadyState
	paused    bool
	ended     bool
	position  time.Duration
	duration  time.Duration
	volume    float64
	loop      bool
	err       *MediaError
	playErr   error
	volumeErr error

	autoDuration time.Duration
	autoFail     *MediaError

	loadCalls   []string
	playCalls   int
	volumeCalls int
}

// NewMock creates a paused, empty mock element at full volume.
func NewMock() *Mock {
	return &Mock{
		d:      newDispatcher(),
		paused: true,
		volume: 1,
	}
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

func (m *Mock) SetSource(url string) {
	m.mu.Lock()
	m.src = url
	m.mu.Unlock()
}

func (m *Mock) RemoveSource() {
	m.mu.Lock()
	m.src = ""
	m.mu.Unlock()
}

func (m *Mock) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	gen := m.d.advance()
	m.ready = HaveNothing
	m.paused = true
	m.ended = false
	m.position = 0
	m.duration = 0
	m.err = nil

	if m.src == "" {
		m.d.post(EventEmptied)
		return
	}
	m.loadCalls = append(m.loadCalls, m.src)
	m.d.postLoad(gen, EventLoadStart, nil)

	switch {
	case m.autoFail != nil:
		m.failLocked(gen, m.autoFail)
	case m.autoDuration > 0:
		m.readyLocked(gen, m.autoDuration)
	}
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.src == "" {
		return ErrNoSource
	}
	if m.ready < HaveFutureData {
		return ErrNotReady
	}
	if m.playErr != nil {
		return m.playErr
	}
	if !m.paused {
		return nil
	}
	if m.ended {
		m.ended = false
		if !m.loop {
			m.position = 0
		}
	}
	m.paused = false
	m.playCalls++
	m.d.post(EventPlay)
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paused {
		return
	}
	m.paused = true
	m.d.post(EventPause)
}

func (m *Mock) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Mock) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

func (m *Mock) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) SetCurrentTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = min(max(d, 0), m.duration)
	if m.position < m.duration {
		m.ended = false
	}
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) SetVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls++
	if m.volumeErr != nil {
		return m.volumeErr
	}
	m.volume = v
	return nil
}

func (m *Mock) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

func (m *Mock) SetLoop(on bool) {
	m.mu.Lock()
	m.loop = on
	m.mu.Unlock()
}

func (m *Mock) ReadyState() ReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *Mock) Error() *MediaError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Mock) AddListener(fn func(Event)) func() {
	return m.d.listeners.Add(fn)
}

func (m *Mock) Close() error {
	m.d.close()
	return nil
}

// Simulation helpers

// SimulateCanPlayThrough completes the current load with the given duration.
func (m *Mock) SimulateCanPlayThrough(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyLocked(m.d.current(), duration)
}

// SimulateError fails the current load or playback with code.
func (m *Mock) SimulateError(code ErrorCode, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLocked(m.d.current(), &MediaError{Code: code, Message: message})
}

// SimulateTimeUpdate moves the position and emits a time update.
func (m *Mock) SimulateTimeUpdate(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
	m.d.postLoad(m.d.current(), EventTimeUpdate, nil)
}

// SimulateEnded plays the source to its natural end.
func (m *Mock) SimulateEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loop {
		m.position = 0
	} else {
		m.position = m.duration
	}
	m.ended = true
	if !m.paused {
		m.paused = true
		m.d.post(EventPause)
	}
	m.d.postLoad(m.d.current(), EventEnded, nil)
}

func (m *Mock) readyLocked(gen uint64, duration time.Duration) {
	m.ready = HaveEnoughData
	m.duration = duration
	m.d.postLoad(gen, EventLoadedMetadata, nil)
	m.d.postLoad(gen, EventCanPlayThrough, nil)
}

func (m *Mock) failLocked(gen uint64, err *MediaError) {
	m.err = err
	m.ready = HaveNothing
	if !m.paused {
		m.paused = true
		m.d.post(EventPause)
	}
	m.d.postLoad(gen, EventError, err)
}

// AutoReady makes every subsequent Load complete with duration.
func (m *Mock) AutoReady(duration time.Duration) {
	m.mu.Lock()
	m.autoDuration = duration
	m.autoFail = nil
	m.mu.Unlock()
}

// AutoFail makes every subsequent Load fail with code.
func (m *Mock) AutoFail(code ErrorCode) {
	m.mu.Lock()
	m.autoFail = &MediaError{Code: code}
	m.mu.Unlock()
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	m.playErr = err
	m.mu.Unlock()
}

func (m *Mock) SetVolumeError(err error) {
	m.mu.Lock()
	m.volumeErr = err
	m.mu.Unlock()
}

// LoadCalls returns the sources of every Load that had a source attached.
func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

// PlayCalls counts Play calls that started playback.
func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// VolumeCalls counts SetVolume calls, including failed ones.
func (m *Mock) VolumeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumeCalls
}

// Verify Mock implements Element at compile time.
var _ Element = (*Mock)(nil)
