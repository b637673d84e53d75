package media

import (
	"sync"

	"github.com/llehouerou/tunedeck/internal/observer"
)

// dispatcher delivers element events in order on its own goroutine.
// Posting never blocks. Events tagged with a load generation are dropped
// at delivery time if a newer load has started since they were posted.
type dispatcher struct {
	listeners observer.List[Event]

	mu     sync.Mutex
	queue  []Event
	gen    uint64
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.loop()
	return d
}

// advance starts a new load generation and returns it.
func (d *dispatcher) advance() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	return d.gen
}

func (d *dispatcher) current() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// post queues an event that is not tied to a particular load.
func (d *dispatcher) post(t EventType) {
	d.enqueue(Event{Type: t})
}

// postLoad queues an event belonging to load generation gen.
func (d *dispatcher) postLoad(gen uint64, t EventType, err *MediaError) {
	d.enqueue(Event{Type: t, Err: err, gen: gen})
}

func (d *dispatcher) enqueue(ev Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) next() (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue = d.queue[1:]
		if ev.gen != 0 && ev.gen != d.gen {
			continue
		}
		return ev, true
	}
	return Event{}, false
}

func (d *dispatcher) loop() {
	for {
		select {
		case <-d.wake:
		case <-d.done:
			return
		}
		for {
			ev, ok := d.next()
			if !ok {
				break
			}
			d.listeners.Emit(ev)
		}
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.queue = nil
	d.mu.Unlock()
	close(d.done)
}
