/*
Package fanout tells interested parties that a category of stored data changed,
so they can re-read it.

Delivery inside one process is synchronous and reliable. Delivery to other
processes goes through a Broadcaster and is best effort: it may be unsupported
or lose events, which is why consumers also poll (see Watch).
*/
package fanout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/randx"
)

// Category names the kind of data that changed.
type Category string

const (
	Users          Category = "users"
	Messages       Category = "messages"
	Posts          Category = "posts"
	Online         Category = "online"
	DirectMessages Category = "dm"

	// Tick is passed to Watch callbacks on poll ticks; it is never published.
	Tick Category = "tick"
)

// Valid reports whether c can be published.
func (c Category) Valid() bool {
	switch c {
	case Users, Messages, Posts, Online, DirectMessages:
		return true
	}
	return false
}

// Event is the cross-process notification format.
type Event struct {
	Type      Category `json:"type"`
	Timestamp int64    `json:"timestamp"`
	Origin    string   `json:"origin"`
}

// Publisher is the side of the Bus that services depend on.
type Publisher interface {
	Publish(c Category)
}

type subscription struct {
	fn     func(Category)
	active atomic.Bool
}

// Bus is a process-wide notification bus.
type Bus struct {
	origin      string
	broadcaster Broadcaster
	stopListen  func()
	now         clock.Clock

	mu   sync.RWMutex
	subs []*subscription

	closeOnce sync.Once
	logger    zerolog.Logger
}

// NewBus creates a Bus relaying to and from broadcaster. A nil broadcaster
// means cross-process delivery is unsupported.
func NewBus(broadcaster Broadcaster) *Bus {
	if broadcaster == nil {
		broadcaster = Nop{}
	}

	b := &Bus{
		origin:      randx.OriginID(),
		broadcaster: broadcaster,
		now:         clock.System,
		logger:      logx.Component("fanout"),
	}
	b.logger = b.logger.With().Str("origin", b.origin).Logger()
	b.stopListen = broadcaster.Listen(b.receive)

	return b
}

// Origin identifies this bus in broadcast events.
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe registers fn for every category. The returned function removes
// it; once that returns fn receives no further deliveries, and calling it
// again does nothing.
func (b *Bus) Subscribe(fn func(Category)) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)

			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s == sub {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish notifies local subscribers synchronously, then hands the event to
// the broadcaster for other processes.
func (b *Bus) Publish(c Category) {
	if !c.Valid() {
		b.logger.Warn().Str("category", string(c)).Msg("Ignoring publish of unknown category.")
		return
	}

	b.deliver(c)

	event := Event{Type: c, Timestamp: clock.Millis(b.now()), Origin: b.origin}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := b.broadcaster.Broadcast(ctx, event); err != nil {
		b.logger.Warn().Err(err).Str("category", string(c)).Msg("Cross-process broadcast failed.")
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops receiving broadcast events and drops all subscriptions.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.stopListen()

		b.mu.Lock()
		for _, s := range b.subs {
			s.active.Store(false)
		}
		b.subs = nil
		b.mu.Unlock()
	})
}

// receive handles events from the broadcaster, skipping our own.
func (b *Bus) receive(e Event) {
	if e.Origin == b.origin {
		return
	}
	if !e.Type.Valid() {
		b.logger.Debug().Str("category", string(e.Type)).Msg("Dropping broadcast with unknown category.")
		return
	}
	b.deliver(e.Type)
}

func (b *Bus) deliver(c Category) {
	b.mu.RLock()
	snapshot := make([]*subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		if !sub.active.Load() {
			continue
		}
		b.call(sub, c)
	}
}

// call runs one subscriber, containing its panics so the rest still run.
func (b *Bus) call(sub *subscription, c Category) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Err(fmt.Errorf("%v", r)).
				Str("category", string(c)).
				Msg("Subscriber panicked during delivery.")
		}
	}()
	sub.fn(c)
}
