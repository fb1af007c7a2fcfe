package fanout

import (
	"context"
	"sync"
)

// Hub connects buses living in the same process as if they were separate
// processes, keyed by channel name.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*listeners
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]*listeners)}
}

// Channel returns a Broadcaster bound to the named channel.
func (h *Hub) Channel(name string) *HubBroadcaster {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.channels[name]
	if !ok {
		l = &listeners{}
		h.channels[name] = l
	}
	return &HubBroadcaster{listeners: l}
}

// HubBroadcaster delivers on the broadcasting goroutine.
type HubBroadcaster struct {
	listeners *listeners
	stops     []func()
	mu        sync.Mutex
}

func (b *HubBroadcaster) Broadcast(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.listeners.dispatch(e)
	return nil
}

func (b *HubBroadcaster) Listen(fn func(Event)) func() {
	stop := b.listeners.add(fn)

	b.mu.Lock()
	b.stops = append(b.stops, stop)
	b.mu.Unlock()

	return stop
}

// Close detaches every listener registered through b.
func (b *HubBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, stop := range b.stops {
		stop()
	}
	b.stops = nil
	return nil
}
