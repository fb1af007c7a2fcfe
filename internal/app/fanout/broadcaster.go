package fanout

import (
	"context"
	"sync"
)

// Broadcaster carries events between processes sharing one store.
type Broadcaster interface {
	// Broadcast sends e to every listener, possibly including the sender.
	Broadcast(ctx context.Context, e Event) error

	// Listen registers fn for incoming events until stop is called.
	Listen(fn func(Event)) (stop func())

	Close() error
}

// Nop is used where no cross-process primitive exists; other processes only
// see changes on their next poll.
type Nop struct{}

func (Nop) Broadcast(context.Context, Event) error { return nil }
func (Nop) Listen(func(Event)) func()              { return func() {} }
func (Nop) Close() error                           { return nil }

// listeners is the registry shared by the concrete broadcasters.
type listeners struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]func(Event)
}

func (l *listeners) add(fn func(Event)) (stop func()) {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]func(Event))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners) snapshot() []func(Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fns := make([]func(Event), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	return fns
}

func (l *listeners) dispatch(e Event) {
	for _, fn := range l.snapshot() {
		fn(e)
	}
}
