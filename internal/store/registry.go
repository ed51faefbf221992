package store

import (
	"sync"

	"finadvisor/internal/feed"
	"finadvisor/internal/identity"
)

// Registry keeps one feed per identity for a document kind. Backends load
// the initial value lazily and publish after every successful write.
type Registry[T any] struct {
	mu    sync.Mutex
	feeds map[identity.Identity]*feed.Feed[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{feeds: make(map[identity.Identity]*feed.Feed[T])}
}

// Subscribe opens a subscription for id, calling load when no feed exists yet.
func (r *Registry[T]) Subscribe(id identity.Identity, load func() (T, error)) (*feed.Subscription[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[id]
	if !ok {
		v, err := load()
		if err != nil {
			return nil, err
		}
		f = feed.New(v)
		r.feeds[id] = f
	}
	return f.Subscribe(), nil
}

// Publish pushes v to id's feed. Without a feed nothing happens: the next
// Subscribe loads fresh state.
func (r *Registry[T]) Publish(id identity.Identity, v T) {
	r.mu.Lock()
	f, ok := r.feeds[id]
	r.mu.Unlock()
	if ok {
		f.Publish(v)
	}
}

// Active reports whether id has a feed.
func (r *Registry[T]) Active(id identity.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.feeds[id]
	return ok
}
