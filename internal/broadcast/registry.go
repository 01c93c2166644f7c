package broadcast

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrDuplicateSubscriber is returned when a subscriber id is already registered.
	ErrDuplicateSubscriber = errors.New("broadcast: subscriber already registered")

	// ErrNilSubscriber is returned when registering a nil subscriber.
	ErrNilSubscriber = errors.New("broadcast: nil subscriber")

	// ErrDeliveryFailed wraps the error of a failed delivery.
	ErrDeliveryFailed = errors.New("broadcast: delivery failed")
)

// Subscriber is one consumer of published messages.
type Subscriber interface {
	// ID identifies the subscriber within a registry.
	ID() string

	// Deliver sends one encoded message. A non-nil error removes the
	// subscriber from the registry.
	Deliver(ctx context.Context, payload []byte) error

	// Close releases the subscriber after it has been reaped.
	Close() error
}

// Registry is a synchronized set of subscribers keyed by id.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]Subscriber)}
}

func (r *Registry) add(s Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.subs[s.ID()]; exists {
		return ErrDuplicateSubscriber
	}
	r.subs[s.ID()] = s
	return nil
}

func (r *Registry) remove(id string) (Subscriber, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if ok {
		delete(r.subs, id)
	}
	return s, ok
}

// Members returns the registered subscribers ordered by id.
func (r *Registry) Members() []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[id]
	return ok
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
