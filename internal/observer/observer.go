// Package observer provides callback lists where every registration comes
// with a disposer that removes exactly that registration.
package observer

import (
	"slices"
	"sync"
)

// List is an ordered set of callbacks receiving values of type T.
// The zero value is ready to use.
type List[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []entry[T]
}

type entry[T any] struct {
	id uint64
	fn func(T)
}

// Add registers fn and returns a function that removes it.
// The returned function may be called any number of times.
func (l *List[T]) Add(fn func(T)) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, entry[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *List[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.subs, func(e entry[T]) bool { return e.id == id })
	if i < 0 {
		return
	}
	// Copy so that snapshots taken by an in-progress Emit stay intact.
	l.subs = slices.Delete(slices.Clone(l.subs), i, i+1)
}

// Emit calls every registered callback with v in registration order.
// Callbacks run without the list lock held, so they may add or remove
// registrations; such changes take effect from the next Emit.
func (l *List[T]) Emit(v T) {
	l.mu.Lock()
	subs := l.subs
	l.mu.Unlock()

	for _, e := range subs {
		e.fn(v)
	}
}

// Len returns the number of registered callbacks.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Clear removes every registration.
func (l *List[T]) Clear() {
	l.mu.Lock()
	l.subs = nil
	l.mu.Unlock()
}
