package playback

import "sync"

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	TimeUpdated      <-chan TimeUpdate
	Loaded           <-chan Loaded
	Errors           <-chan *Error
	PlayStateChanged <-chan bool
	Done             <-chan struct{}

	// Internal write channels
	timeCh   chan TimeUpdate
	loadedCh chan Loaded
	errCh    chan *Error
	playCh   chan bool
	doneCh   chan struct{}

	mu      sync.Mutex
	unsubs  []func()
	closed  bool
	onClose func(*Subscription)
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		timeCh:   make(chan TimeUpdate, eventBufferSize),
		loadedCh: make(chan Loaded, eventBufferSize),
		errCh:    make(chan *Error, eventBufferSize),
		playCh:   make(chan bool, eventBufferSize),
		doneCh:   make(chan struct{}),
	}
	s.TimeUpdated = s.timeCh
	s.Loaded = s.loadedCh
	s.Errors = s.errCh
	s.PlayStateChanged = s.playCh
	s.Done = s.doneCh
	return s
}

// Close detaches the subscription and closes Done. Safe to call twice.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	onClose := s.onClose
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if onClose != nil {
		onClose(s)
	}
	close(s.doneCh)
}

// sendTimeUpdate sends a time update (non-blocking).
func (s *Subscription) sendTimeUpdate(e TimeUpdate) {
	select {
	case s.timeCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendLoaded(e Loaded) {
	select {
	case s.loadedCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e *Error) {
	select {
	case s.errCh <- e:
	default:
	}
}

func (s *Subscription) sendPlayState(playing bool) {
	select {
	case s.playCh <- playing:
	default:
	}
}
