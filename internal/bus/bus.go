// Package bus provides the broadcast channel that carries device state
// transitions from the door session to every other session.
//
// Each subscriber gets a small bounded queue. Publication never blocks: a
// transition offered to a full queue is dropped for that subscriber only.
// The state space is tiny and every session keeps its own retained copy of
// the last lock/door value, so a dropped intermediate value is recovered on
// the next transition. The bus itself does not replay history to late
// joiners; see Retained for the per-session cache.
package bus

import (
	"errors"
	"sync"

	"github.com/muurk/doorctl/internal/state"
)

const (
	// SubscriberQueueLen is the per-subscriber queue capacity.
	SubscriberQueueLen = 2

	// MaxSubscribers bounds the number of concurrent subscribers.
	MaxSubscribers = 6
)

// ErrTooManySubscribers is returned by Subscribe once MaxSubscribers
// subscriptions are live.
var ErrTooManySubscribers = errors.New("bus: subscriber limit reached")

// Bus fans state transitions out to all current subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[*Subscriber]struct{})}
}

// Subscribe attaches a new subscriber. The caller must Cancel it when done
// so the slot is returned.
func (b *Bus) Subscribe() (*Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subs) >= MaxSubscribers {
		return nil, ErrTooManySubscribers
	}

	sub := &Subscriber{
		bus: b,
		ch:  make(chan state.Any, SubscriberQueueLen),
	}
	b.subs[sub] = struct{}{}
	return sub, nil
}

// Publish offers a transition to every subscriber without blocking.
// Subscribers with a full queue miss this value.
func (b *Bus) Publish(s state.Any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- s:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Subscriber receives transitions published after it attached, in publish
// order.
type Subscriber struct {
	bus  *Bus
	ch   chan state.Any
	once sync.Once
}

// C is the receive channel for this subscriber.
func (s *Subscriber) C() <-chan state.Any {
	return s.ch
}

// Cancel detaches the subscriber and frees its slot. Safe to call more
// than once. Values already queued remain readable from C.
func (s *Subscriber) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
}

// Retained is the per-session last-value cache for each state dimension.
// Sessions update it on every receive and replay it to newly attached
// peers, covering the gap that the bus does not deliver history.
type Retained struct {
	lock state.Lock
	door state.Door
}

// Observe records a received transition.
func (r *Retained) Observe(s state.Any) {
	switch s.Kind {
	case state.KindLock:
		r.lock = s.Lock
	case state.KindDoor:
		r.door = s.Door
	}
}

// Lock returns the last lock state seen and whether one has been seen.
func (r *Retained) Lock() (state.Lock, bool) {
	return r.lock, r.lock != 0
}

// Door returns the last door state seen and whether one has been seen.
func (r *Retained) Door() (state.Door, bool) {
	return r.door, r.door != 0
}
