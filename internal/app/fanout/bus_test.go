package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBroadcaster struct {
	mock.Mock
	listen func(Event)
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, e Event) error {
	return m.Called(e).Error(0)
}

func (m *mockBroadcaster) Listen(fn func(Event)) func() {
	m.listen = fn
	return func() { m.listen = nil }
}

func (m *mockBroadcaster) Close() error { return nil }

// recorder collects delivered categories.
type recorder struct {
	mu  sync.Mutex
	got []Category
}

func (r *recorder) add(c Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, c)
}

func (r *recorder) all() []Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Category(nil), r.got...)
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{Users, Messages, Posts, Online, DirectMessages} {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Tick.Valid())
	assert.False(t, Category("likes").Valid())
}

func TestPublishDeliversLocally(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	var a, b recorder
	bus.Subscribe(a.add)
	bus.Subscribe(b.add)

	bus.Publish(Messages)
	bus.Publish(Posts)

	assert.Equal(t, []Category{Messages, Posts}, a.all())
	assert.Equal(t, []Category{Messages, Posts}, b.all())
}

func TestPublishIgnoresUnknownCategory(t *testing.T) {
	bc := &mockBroadcaster{}
	bus := NewBus(bc)

	var r recorder
	bus.Subscribe(r.add)
	bus.Publish(Category("likes"))

	assert.Empty(t, r.all())
	bc.AssertNotCalled(t, "Broadcast", mock.Anything)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(nil)

	var r recorder
	unsubscribe := bus.Subscribe(r.add)
	require.Equal(t, 1, bus.Subscribers())

	bus.Publish(Users)
	unsubscribe()
	unsubscribe()
	bus.Publish(Users)

	assert.Equal(t, []Category{Users}, r.all())
	assert.Equal(t, 0, bus.Subscribers())
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus(nil)

	var second recorder
	var unsubscribeSecond func()
	bus.Subscribe(func(Category) { unsubscribeSecond() })
	unsubscribeSecond = bus.Subscribe(second.add)

	bus.Publish(Online)

	assert.Empty(t, second.all())
}

func TestPanickingSubscriberDoesNotStopOthers(t *testing.T) {
	bus := NewBus(nil)

	var r recorder
	bus.Subscribe(func(Category) { panic("boom") })
	bus.Subscribe(r.add)

	assert.NotPanics(t, func() { bus.Publish(Posts) })
	assert.Equal(t, []Category{Posts}, r.all())
}

func TestPublishBroadcastsEvent(t *testing.T) {
	bc := &mockBroadcaster{}
	bus := NewBus(bc)

	bc.On("Broadcast", mock.MatchedBy(func(e Event) bool {
		return e.Type == DirectMessages && e.Origin == bus.Origin() && e.Timestamp > 0
	})).Return(nil).Once()

	bus.Publish(DirectMessages)

	bc.AssertExpectations(t)
}

func TestBroadcastFailureKeepsLocalDelivery(t *testing.T) {
	bc := &mockBroadcaster{}
	bc.On("Broadcast", mock.Anything).Return(errors.New("channel closed"))
	bus := NewBus(bc)

	var r recorder
	bus.Subscribe(r.add)

	assert.NotPanics(t, func() { bus.Publish(Users) })
	assert.Equal(t, []Category{Users}, r.all())
}

func TestReceiveSkipsOwnEvents(t *testing.T) {
	bc := &mockBroadcaster{}
	bus := NewBus(bc)
	require.NotNil(t, bc.listen)

	var r recorder
	bus.Subscribe(r.add)

	bc.listen(Event{Type: Posts, Origin: bus.Origin()})
	bc.listen(Event{Type: Category("bogus"), Origin: "origin_other"})
	bc.listen(Event{Type: Messages, Origin: "origin_other"})

	assert.Equal(t, []Category{Messages}, r.all())
}

func TestCloseStopsListening(t *testing.T) {
	bc := &mockBroadcaster{}
	bus := NewBus(bc)

	var r recorder
	bus.Subscribe(r.add)
	bus.Close()
	bus.Close()

	assert.Nil(t, bc.listen)
	assert.Equal(t, 0, bus.Subscribers())
}

func TestHubJoinsBuses(t *testing.T) {
	hub := NewHub()
	first := NewBus(hub.Channel(DefaultChannel))
	second := NewBus(hub.Channel(DefaultChannel))
	other := NewBus(hub.Channel("elsewhere"))

	var inFirst, inSecond, inOther recorder
	first.Subscribe(inFirst.add)
	second.Subscribe(inSecond.add)
	other.Subscribe(inOther.add)

	first.Publish(Messages)

	assert.Equal(t, []Category{Messages}, inFirst.all(), "publisher sees its own change exactly once")
	assert.Equal(t, []Category{Messages}, inSecond.all())
	assert.Empty(t, inOther.all())

	second.Close()
	first.Publish(Posts)
	assert.Equal(t, []Category{Messages}, inSecond.all())
}

func TestHubBroadcasterClose(t *testing.T) {
	hub := NewHub()
	ch := hub.Channel("c")

	var r recorder
	ch.Listen(func(e Event) { r.add(e.Type) })
	require.NoError(t, ch.Close())

	require.NoError(t, hub.Channel("c").Broadcast(context.Background(), Event{Type: Users}))
	assert.Empty(t, r.all())
}
