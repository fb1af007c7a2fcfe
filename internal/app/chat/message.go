/*
Package chat is the global chat room: one shared, bounded log of messages that
every signed-in user can read and post to.
*/
package chat

import "satorugram/internal/app/user"

const (
	// MaxMessages bounds the log; the oldest messages are evicted past it.
	MaxMessages = 500

	// MaxMessageLength is the longest accepted message, in characters.
	MaxMessageLength = 1000
)

// Message is one entry of the global chat log. Sender fields are copied at
// send time so the log renders without joining users.
type Message struct {
	ID               string `json:"id"`
	SenderID         string `json:"senderId"`
	SenderNickname   string `json:"senderNickname"`
	SenderAvatar     string `json:"senderAvatar"`
	SenderAvatarType string `json:"senderAvatarType,omitempty"`
	Text             string `json:"text"`
	Timestamp        int64  `json:"timestamp"`
}

func newMessage(id string, sender user.User, text string, timestamp int64) Message {
	return Message{
		ID:               id,
		SenderID:         sender.ID,
		SenderNickname:   sender.Nickname,
		SenderAvatar:     sender.Avatar,
		SenderAvatarType: sender.AvatarType,
		Text:             text,
		Timestamp:        timestamp,
	}
}
