package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"satorugram/internal/app/fanout"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/record"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/errs"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/randx"
)

// Service owns the global chat log.
type Service struct {
	messages *record.Collection[Message]
	bus      fanout.Publisher
	now      clock.Clock

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	logger zerolog.Logger
}

func NewService(store kv.Store, ns record.Namespace, bus fanout.Publisher, now clock.Clock) *Service {
	return &Service{
		messages: record.NewCollection[Message](store, ns, record.Messages),
		bus:      bus,
		now:      now,
		logger:   logx.Component("chat"),
	}
}

// Send appends a message from sender, evicting the oldest messages once the
// log holds more than MaxMessages.
func (s *Service) Send(ctx context.Context, sender user.User, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.NewError(errs.ErrMessageEmpty)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, errs.NewError(errs.ErrMessageContentTooLong, MaxMessageLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := newMessage(randx.ID(), sender, text, clock.Millis(s.now()))

	messages := append(s.List(ctx), msg)
	if len(messages) > MaxMessages {
		messages = messages[len(messages)-MaxMessages:]
	}

	if err := s.messages.Replace(ctx, messages); err != nil {
		return nil, errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.Messages)

	s.logger.Debug().Str("sender_id", sender.ID).Str("message_id", msg.ID).Msg("Chat message stored.")
	return &msg, nil
}

// List returns the log oldest first.
func (s *Service) List(ctx context.Context) []Message {
	messages := s.messages.Load(ctx)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	return messages
}
