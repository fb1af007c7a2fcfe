package dm

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"satorugram/internal/app/chat"
	"satorugram/internal/app/fanout"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/record"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/errs"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/randx"
)

// Service owns the direct message log.
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
		messages: record.NewCollection[Message](store, ns, record.DirectMessages),
		bus:      bus,
		now:      now,
		logger:   logx.Component("dm"),
	}
}

// Send stores an unread message from sender to receiverID. The caller is
// responsible for checking that the receiver exists.
func (s *Service) Send(ctx context.Context, sender user.User, receiverID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.NewError(errs.ErrMessageEmpty)
	}
	if utf8.RuneCountInString(text) > chat.MaxMessageLength {
		return nil, errs.NewError(errs.ErrMessageContentTooLong, chat.MaxMessageLength)
	}
	if receiverID == "" {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}
	if receiverID == sender.ID {
		return nil, errs.NewError(errs.ErrSelfMessage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := newMessage(randx.ID(), sender, receiverID, text, clock.Millis(s.now()))

	if err := s.messages.Replace(ctx, append(s.log(ctx), msg)); err != nil {
		return nil, errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.DirectMessages)

	s.logger.Debug().
		Str("sender_id", sender.ID).
		Str("receiver_id", receiverID).
		Str("message_id", msg.ID).
		Msg("Direct message stored.")
	return &msg, nil
}

// Conversation returns the messages exchanged between a and b, oldest first.
func (s *Service) Conversation(ctx context.Context, a, b string) []Message {
	messages := make([]Message, 0)
	for _, m := range s.log(ctx) {
		if m.between(a, b) {
			messages = append(messages, m)
		}
	}
	return messages
}

// ConversationsFor lists the conversations userID takes part in, most recent
// first, with the number of messages userID has not read yet.
func (s *Service) ConversationsFor(ctx context.Context, userID string) []Conversation {
	return conversationsFor(s.log(ctx), userID)
}

// MarkConversationAsRead marks every message from partnerID to userID as
// read. The log is rewritten and the change announced even when nothing was
// unread.
func (s *Service) MarkConversationAsRead(ctx context.Context, userID, partnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.log(ctx)
	marked := 0
	for i, m := range messages {
		if m.SenderID == partnerID && m.unreadBy(userID) {
			messages[i].Read = true
			marked++
		}
	}

	if err := s.messages.Replace(ctx, messages); err != nil {
		return errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.DirectMessages)

	s.logger.Debug().
		Str("user_id", userID).
		Str("partner_id", partnerID).
		Int("marked", marked).
		Msg("Conversation marked as read.")
	return nil
}

// UnreadCount returns how many messages addressed to userID are unread.
func (s *Service) UnreadCount(ctx context.Context, userID string) int {
	count := 0
	for _, m := range s.messages.Load(ctx) {
		if m.unreadBy(userID) {
			count++
		}
	}
	return count
}

// log loads the whole log sorted oldest first.
func (s *Service) log(ctx context.Context) []Message {
	messages := s.messages.Load(ctx)
	sortLog(messages)
	return messages
}
