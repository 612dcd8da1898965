package events

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrPayloadType is returned when a listener receives a payload of a type it
// does not handle.
var ErrPayloadType = errors.New("unexpected event payload type")

// Listener handles one event. It reads from and writes to payload.
type Listener func(ctx context.Context, payload any) error

// Registration is a listener plus its priority. Higher priorities run first.
type Registration struct {
	Listener Listener
	Priority int
}

// Subscriber lists the events it handles, keyed by event name.
type Subscriber interface {
	SubscribedEvents() map[string][]Registration
}

// Handle adapts a typed handler into a Listener.
func Handle[E any](fn func(ctx context.Context, e *E) error) Listener {
	return func(ctx context.Context, payload any) error {
		e, ok := payload.(*E)
		if !ok {
			return fmt.Errorf("%w: want %T, got %T", ErrPayloadType, (*E)(nil), payload)
		}
		return fn(ctx, e)
	}
}

// Observer is told about every dispatch and its outcome.
type Observer func(name string, err error)

type entry struct {
	listener Listener
	priority int
}

// Dispatcher delivers events synchronously to registered listeners.
// It is safe for concurrent use; registration normally happens at start-up.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]entry
	observers []Observer
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]entry)}
}

// AddListener registers l for name. Listeners with equal priority run in
// registration order.
func (d *Dispatcher) AddListener(name string, l Listener, priority int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := append(d.listeners[name], entry{listener: l, priority: priority})
	slices.SortStableFunc(list, func(a, b entry) int { return cmp.Compare(b.priority, a.priority) })
	d.listeners[name] = list
}

// AddSubscriber registers every listener in s.SubscribedEvents().
func (d *Dispatcher) AddSubscriber(s Subscriber) {
	table := s.SubscribedEvents()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, r := range table[name] {
			d.AddListener(name, r.Listener, r.Priority)
		}
	}
}

// Observe registers fn to be called after every Dispatch.
func (d *Dispatcher) Observe(fn Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// HasListeners reports whether any listener is registered for name.
func (d *Dispatcher) HasListeners(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name]) > 0
}

// Dispatch calls each listener for name in order. The first error stops
// dispatch and is returned wrapped with the event name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, payload any) error {
	d.mu.RLock()
	list := slices.Clone(d.listeners[name])
	observers := slices.Clone(d.observers)
	d.mu.RUnlock()

	var err error
	for _, e := range list {
		if lerr := e.listener(ctx, payload); lerr != nil {
			err = fmt.Errorf("%s: %w", name, lerr)
			break
		}
	}
	for _, o := range observers {
		o(name, err)
	}
	return err
}
