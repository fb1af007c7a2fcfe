package stream

import (
	"sync"

	"github.com/rs/zerolog"

	"satorugram/internal/pkg/logx"
)

// Hub tracks the connected clients so they can be counted and shut down
// together.
type Hub struct {
	// clients holds every registered client.
	clients map[*Client]struct{}

	// register and unregister are served by the Run loop.
	register   chan *Client
	unregister chan *Client

	// stop ends the Run loop; done is closed once it has.
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// mu protects clients for readers outside the Run loop.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a Hub. Call Run to start serving it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logx.Component("stream.hub"),
	}
}

// Run serves registrations until Stop is called, then closes every client.
func (h *Hub) Run() {
	defer close(h.done)

	h.logger.Info().Msg("Stream hub started.")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()

			c.logger.Info().Int("total_clients", total).Msg("Client connected.")

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			delete(h.clients, c)
			total := len(h.clients)
			h.mu.Unlock()

			if ok {
				c.logger.Info().Int("total_clients", total).Msg("Client disconnected.")
			}

		case <-h.stop:
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
			}
			count := len(h.clients)
			h.clients = make(map[*Client]struct{})
			h.mu.Unlock()

			h.logger.Info().Int("closed_clients", count).Msg("Stream hub stopped.")
			return
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop closes every client and waits for the Run loop to end.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}

// add registers c, reporting false when the hub is already stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stop:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stop:
	}
}
