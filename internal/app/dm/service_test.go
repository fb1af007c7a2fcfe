package dm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satorugram/internal/app/fanout"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/record"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/errs"
)

var (
	alice = user.User{ID: "a", Nickname: "Alice", Avatar: "🐇", AvatarType: user.AvatarEmoji}
	bob   = user.User{ID: "b", Nickname: "Bob", Avatar: "🐢", AvatarType: user.AvatarEmoji}
	carol = user.User{ID: "c", Nickname: "Carol", Avatar: "🦊", AvatarType: user.AvatarEmoji}
)

type fixture struct {
	svc       *Service
	clock     *clock.Fake
	store     kv.Store
	published *int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := fanout.NewBus(nil)
	t.Cleanup(bus.Close)

	published := 0
	bus.Subscribe(func(c fanout.Category) {
		if c == fanout.DirectMessages {
			published++
		}
	})

	store := kv.NewMemory()
	fake := clock.NewFake(time.UnixMilli(0))
	return &fixture{
		svc:       NewService(store, "test", bus, fake.Now),
		clock:     fake,
		store:     store,
		published: &published,
	}
}

// sendAt sends a message stamped with the given millisecond timestamp.
func (f *fixture) sendAt(t *testing.T, ts int64, from user.User, to, text string) *Message {
	t.Helper()
	f.clock.Advance(time.UnixMilli(ts).Sub(f.clock.Now()))
	msg, err := f.svc.Send(context.Background(), from, to, text)
	require.NoError(t, err)
	return msg
}

func TestSend(t *testing.T) {
	f := newFixture(t)

	msg := f.sendAt(t, 100, alice, bob.ID, "  hi bob ")
	assert.Equal(t, "hi bob", msg.Text)
	assert.Equal(t, "a", msg.SenderID)
	assert.Equal(t, "b", msg.ReceiverID)
	assert.Equal(t, "Alice", msg.SenderNickname)
	assert.Equal(t, "🐇", msg.SenderAvatar)
	assert.False(t, msg.Read)
	assert.Equal(t, 1, *f.published)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, alice, bob.ID, "   ")
	assert.True(t, errs.Is(err, errs.ErrMessageEmpty))

	_, err = f.svc.Send(ctx, alice, alice.ID, "note to self")
	assert.True(t, errs.Is(err, errs.ErrSelfMessage))

	_, err = f.svc.Send(ctx, alice, "", "hello?")
	assert.True(t, errs.Is(err, errs.ErrUserNotFound))

	assert.Zero(t, *f.published)
}

func TestConversationsForUnreadAndLastMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sendAt(t, 100, alice, bob.ID, "first")
	f.sendAt(t, 200, alice, bob.ID, "second")

	convs := f.svc.ConversationsFor(ctx, bob.ID)
	require.Len(t, convs, 1)
	assert.Equal(t, alice.ID, convs[0].PartnerID)
	assert.Equal(t, 2, convs[0].UnreadCount)
	assert.Equal(t, int64(200), convs[0].LastMessage.Timestamp)
	assert.Equal(t, 2, f.svc.UnreadCount(ctx, bob.ID))

	fromAlice := f.svc.ConversationsFor(ctx, alice.ID)
	require.Len(t, fromAlice, 1)
	assert.Equal(t, bob.ID, fromAlice[0].PartnerID)
	assert.Zero(t, fromAlice[0].UnreadCount, "own messages never count as unread")

	require.NoError(t, f.svc.MarkConversationAsRead(ctx, bob.ID, alice.ID))
	convs = f.svc.ConversationsFor(ctx, bob.ID)
	require.Len(t, convs, 1)
	assert.Zero(t, convs[0].UnreadCount)
	assert.Zero(t, f.svc.UnreadCount(ctx, bob.ID))
}

func TestMarkConversationAsReadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sendAt(t, 100, alice, bob.ID, "one")
	f.sendAt(t, 150, carol, bob.ID, "from carol")
	f.sendAt(t, 200, bob, alice.ID, "reply")

	require.NoError(t, f.svc.MarkConversationAsRead(ctx, bob.ID, alice.ID))
	once := f.svc.ConversationsFor(ctx, bob.ID)

	published := *f.published
	require.NoError(t, f.svc.MarkConversationAsRead(ctx, bob.ID, alice.ID))
	assert.Equal(t, published+1, *f.published, "announced even when nothing changed")

	twice := f.svc.ConversationsFor(ctx, bob.ID)
	assert.Equal(t, once, twice)
	assert.Equal(t, 1, f.svc.UnreadCount(ctx, bob.ID), "other conversations stay unread")

	for _, m := range f.svc.Conversation(ctx, alice.ID, bob.ID) {
		if m.SenderID == bob.ID {
			assert.False(t, m.Read, "messages sent by the reader are untouched")
		}
	}
}

func TestConversationsOrderAndUnreadAcrossHistory(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	log := record.NewCollection[Message](store, "test", record.DirectMessages)

	// Stored out of order, with an old unread message behind a newer read one.
	require.NoError(t, log.Replace(ctx, []Message{
		{ID: "4", SenderID: "c", ReceiverID: "b", Timestamp: 400},
		{ID: "1", SenderID: "a", ReceiverID: "b", Timestamp: 100},
		{ID: "3", SenderID: "a", ReceiverID: "b", Timestamp: 300, Read: true},
		{ID: "2", SenderID: "a", ReceiverID: "b", Timestamp: 200},
		{ID: "x", SenderID: "a", ReceiverID: "c", Timestamp: 999},
	}))

	svc := NewService(store, "test", fanout.NewBus(nil), clock.System)
	convs := svc.ConversationsFor(ctx, "b")

	require.Len(t, convs, 2)
	assert.Equal(t, "c", convs[0].PartnerID)
	assert.Equal(t, "4", convs[0].LastMessage.ID)
	assert.Equal(t, 1, convs[0].UnreadCount)

	assert.Equal(t, "a", convs[1].PartnerID)
	assert.Equal(t, "3", convs[1].LastMessage.ID)
	assert.Equal(t, 2, convs[1].UnreadCount, "unread counts every message, not just the latest")

	assert.Empty(t, svc.ConversationsFor(ctx, "nobody"))
}

func TestConversationsTieBreak(t *testing.T) {
	messages := []Message{
		{ID: "first", SenderID: "a", ReceiverID: "b", Timestamp: 100},
		{ID: "second", SenderID: "b", ReceiverID: "a", Timestamp: 100},
		{ID: "early", SenderID: "a", ReceiverID: "b", Timestamp: 50},
	}
	sortLog(messages)

	convs := conversationsFor(messages, "b")
	require.Len(t, convs, 1)
	assert.Equal(t, "second", convs[0].LastMessage.ID, "later log entry wins among equal timestamps")
	assert.Equal(t, 2, convs[0].UnreadCount)
}

func TestConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sendAt(t, 100, alice, bob.ID, "hi")
	f.sendAt(t, 150, carol, bob.ID, "psst")
	f.sendAt(t, 200, bob, alice.ID, "hey")

	texts := []string{}
	for _, m := range f.svc.Conversation(ctx, bob.ID, alice.ID) {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"hi", "hey"}, texts)
	assert.Empty(t, f.svc.Conversation(ctx, alice.ID, carol.ID))
}
