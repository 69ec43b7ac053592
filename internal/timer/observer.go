package timer

import (
	"fmt"
	"reflect"
)

// Observer receives the timer's current value: once synchronously on
// subscribe, then once per delivered tick.
type Observer func(value float64)

// Subscription ties one observer to one timer. Unsubscribe is
// idempotent; a second call finds nothing to remove.
type Subscription struct {
	t   *TickTimer
	key uintptr
}

// Unsubscribe stops all future notifications to the observer this
// handle was created for.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.t == nil {
		return
	}
	s.t.unsubscribe(s.key)
}

type observerEntry struct {
	key uintptr
	fn  Observer
}

// Subscribe registers fn and synchronously replays the current value to
// it, so a new observer never waits for the next tick to learn the
// state. Observers are deduplicated by function identity; subscribing
// the same function twice returns a handle bound to the one
// registration. Subscribing to a disposed timer returns an inert
// handle.
func (t *TickTimer) Subscribe(fn Observer) *Subscription {
	if fn == nil {
		return &Subscription{}
	}
	key := reflect.ValueOf(fn).Pointer()

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return &Subscription{}
	}
	if !t.hasObserver(key) {
		t.observers = append(t.observers, &observerEntry{key: key, fn: fn})
	}
	value := t.current
	t.mu.Unlock()

	t.deliver(fn, value)
	return &Subscription{t: t, key: key}
}

func (t *TickTimer) hasObserver(key uintptr) bool {
	for _, e := range t.observers {
		if e.key == key {
			return true
		}
	}
	return false
}

func (t *TickTimer) unsubscribe(key uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.observers {
		if e.key == key {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// notifyAll delivers value to every observer subscribed at the moment
// of the call, in insertion order. Iteration runs over a snapshot, so
// an observer that unsubscribes itself (or another) mid-notification
// cannot corrupt the pass.
func (t *TickTimer) notifyAll(value float64) {
	t.mu.Lock()
	snapshot := make([]*observerEntry, len(t.observers))
	copy(snapshot, t.observers)
	t.mu.Unlock()

	for _, e := range snapshot {
		t.deliver(e.fn, value)
	}
}

// deliver invokes one observer, isolating panics so a failing observer
// neither stops delivery to the rest nor corrupts timer state.
func (t *TickTimer) deliver(fn Observer, value float64) {
	defer func() {
		if r := recover(); r != nil {
			if t.observerErr != nil {
				t.observerErr(fmt.Errorf("timer: observer panic: %v", r))
			}
		}
	}()
	fn(value)
}
