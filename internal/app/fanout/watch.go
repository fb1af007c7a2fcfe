package fanout

import (
	"context"
	"sync"
	"time"
)

var watchOrder = []Category{Users, Messages, Posts, Online, DirectMessages}

// Watch calls refresh once right away with Tick, then for every published
// category among categories (any category when none are given) and with Tick
// on every poll tick. It blocks until ctx is done.
//
// Repeated events of one category that arrive while refresh is busy are
// delivered once; distinct categories are never dropped.
func Watch(ctx context.Context, bus *Bus, interval time.Duration, refresh func(context.Context, Category), categories ...Category) {
	wanted := make(map[Category]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	var (
		mu      sync.Mutex
		pending = make(map[Category]bool)
		wake    = make(chan struct{}, 1)
	)

	unsubscribe := bus.Subscribe(func(c Category) {
		if len(wanted) > 0 && !wanted[c] {
			return
		}

		mu.Lock()
		pending[c] = true
		mu.Unlock()

		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	refresh(ctx, Tick)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-wake:
			mu.Lock()
			due := pending
			pending = make(map[Category]bool)
			mu.Unlock()

			for _, c := range watchOrder {
				if due[c] && ctx.Err() == nil {
					refresh(ctx, c)
				}
			}

		case <-ticker.C:
			refresh(ctx, Tick)
		}
	}
}
