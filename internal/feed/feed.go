// Package feed provides a value holder with change notification, used to
// hand document snapshots from a store to its consumers.
package feed

import "sync"

// Feed holds the latest value of T and notifies subscribers on Publish.
type Feed[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	subs    map[*Subscription[T]]struct{}
}

func New[T any](initial T) *Feed[T] {
	return &Feed[T]{value: initial, subs: make(map[*Subscription[T]]struct{})}
}

// Publish replaces the current value and signals every open subscription.
// Values must not be mutated after publishing.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	f.version++
	for s := range f.subs {
		s.notify()
	}
}

// Current returns the latest published value.
func (f *Feed[T]) Current() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Version counts publishes; it starts at zero.
func (f *Feed[T]) Version() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

// Subscribe opens a subscription. The change channel starts signalled so a
// consumer picks up the current value on its first receive.
func (f *Feed[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{feed: f, changed: make(chan struct{}, 1)}
	s.changed <- struct{}{}
	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()
	return s
}

// Subscribers returns the number of open subscriptions.
func (f *Feed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed[T]) remove(s *Subscription[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, s)
}

// Subscription is a consumer view of a Feed: current value plus a coalescing
// change signal.
type Subscription[T any] struct {
	feed    *Feed[T]
	changed chan struct{}
	once    sync.Once
}

// Current returns the feed's latest value.
func (s *Subscription[T]) Current() T {
	return s.feed.Current()
}

// Changed is signalled at least once after every Publish. Several publishes
// between receives collapse into one signal. The channel is never closed.
func (s *Subscription[T]) Changed() <-chan struct{} {
	return s.changed
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() { s.feed.remove(s) })
}

func (s *Subscription[T]) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
