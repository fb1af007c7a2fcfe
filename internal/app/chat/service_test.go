package chat

import (
	"context"
	"fmt"
	"strings"
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

var neo = user.User{ID: "u1", Nickname: "Neo", Avatar: "😎", AvatarType: user.AvatarEmoji}

func newService(t *testing.T, store kv.Store) (*Service, *clock.Fake, *int) {
	t.Helper()
	bus := fanout.NewBus(nil)
	t.Cleanup(bus.Close)

	published := 0
	bus.Subscribe(func(c fanout.Category) {
		if c == fanout.Messages {
			published++
		}
	})

	fake := clock.NewFake(time.UnixMilli(10_000))
	return NewService(store, "test", bus, fake.Now), fake, &published
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	svc, _, published := newService(t, kv.NewMemory())

	msg, err := svc.Send(ctx, neo, "  hello  ")
	require.NoError(t, err)

	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "u1", msg.SenderID)
	assert.Equal(t, "Neo", msg.SenderNickname)
	assert.Equal(t, "😎", msg.SenderAvatar)
	assert.Equal(t, user.AvatarEmoji, msg.SenderAvatarType)
	assert.Equal(t, int64(10_000), msg.Timestamp)
	assert.Equal(t, 1, *published)
	assert.Equal(t, []Message{*msg}, svc.List(ctx))
}

func TestSendValidation(t *testing.T) {
	tcases := []struct {
		name string
		text string
		code int
	}{
		{name: "empty", text: "", code: errs.ErrMessageEmpty},
		{name: "whitespace", text: " \n\t ", code: errs.ErrMessageEmpty},
		{name: "too long", text: strings.Repeat("я", MaxMessageLength+1), code: errs.ErrMessageContentTooLong},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, published := newService(t, kv.NewMemory())

			_, err := svc.Send(context.Background(), neo, tc.text)
			assert.True(t, errs.Is(err, tc.code), "got %v", err)
			assert.Zero(t, *published)
		})
	}

	svc, _, _ := newService(t, kv.NewMemory())
	_, err := svc.Send(context.Background(), neo, strings.Repeat("я", MaxMessageLength))
	assert.NoError(t, err, "exactly the limit is accepted")
}

func TestLogIsCapped(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newService(t, kv.NewMemory())

	for i := 0; i < MaxMessages; i++ {
		_, err := svc.Send(ctx, neo, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		fake.Advance(time.Millisecond)
	}
	require.Len(t, svc.List(ctx), MaxMessages)

	_, err := svc.Send(ctx, neo, "one too many")
	require.NoError(t, err)

	messages := svc.List(ctx)
	require.Len(t, messages, MaxMessages)
	assert.Equal(t, "m1", messages[0].Text, "oldest message evicted")
	assert.Equal(t, "one too many", messages[MaxMessages-1].Text)
}

func TestListSortsStoredLog(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	log := record.NewCollection[Message](store, "test", record.Messages)
	require.NoError(t, log.Replace(ctx, []Message{
		{ID: "c", Timestamp: 300},
		{ID: "a", Timestamp: 100},
		{ID: "b", Timestamp: 200},
	}))

	svc, _, _ := newService(t, store)

	ids := []string{}
	for _, m := range svc.List(ctx) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
