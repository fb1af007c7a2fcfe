package fanout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatch(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	calls := make(chan Category, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Watch(ctx, bus, time.Hour, func(_ context.Context, c Category) { calls <- c }, Messages)
	}()

	assert.Equal(t, Tick, <-calls, "refreshes immediately")
	assert.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(Posts)
	bus.Publish(Messages)
	select {
	case c := <-calls:
		assert.Equal(t, Messages, c)
	case <-time.After(time.Second):
		t.Fatal("no refresh after a matching publish")
	}

	cancel()
	<-done
	assert.Equal(t, 0, bus.Subscribers())
	assert.Empty(t, calls)
}

func TestWatchPolls(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ticks := 0
	Watch(ctx, bus, 20*time.Millisecond, func(_ context.Context, c Category) {
		ticks++
		if ticks == 3 {
			cancel()
		}
	})

	assert.Equal(t, 3, ticks)
}

func TestWatchKeepsDistinctCategories(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	calls := make(chan Category, 16)
	go Watch(ctx, bus, time.Hour, func(_ context.Context, c Category) {
		calls <- c
		if c == Posts {
			<-release
		}
	})

	assert.Equal(t, Tick, <-calls)
	assert.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(Posts)
	assert.Equal(t, Posts, <-calls)

	// While refresh is busy with posts, queue a burst.
	bus.Publish(DirectMessages)
	bus.Publish(Messages)
	bus.Publish(DirectMessages)
	close(release)

	got := []Category{<-calls, <-calls}
	assert.Equal(t, []Category{Messages, DirectMessages}, got)

	select {
	case c := <-calls:
		t.Fatalf("unexpected extra refresh for %s", c)
	case <-time.After(50 * time.Millisecond):
	}
}
