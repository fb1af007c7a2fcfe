/*
Package dm holds direct messages between two users and the conversation index
derived from them.

All direct messages live in one flat log. Conversations are not stored; they
are computed from the log on every read.
*/
package dm

import "satorugram/internal/app/user"

// Message is one direct message. Read only ever goes from false to true.
type Message struct {
	ID               string `json:"id"`
	SenderID         string `json:"senderId"`
	ReceiverID       string `json:"receiverId"`
	SenderNickname   string `json:"senderNickname"`
	SenderAvatar     string `json:"senderAvatar"`
	SenderAvatarType string `json:"senderAvatarType,omitempty"`
	Text             string `json:"text"`
	Timestamp        int64  `json:"timestamp"`
	Read             bool   `json:"read"`
}

// Conversation summarizes the messages a user exchanged with one partner.
type Conversation struct {
	PartnerID   string  `json:"partnerId"`
	LastMessage Message `json:"lastMessage"`
	UnreadCount int     `json:"unreadCount"`
}

func (m Message) between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (m Message) unreadBy(userID string) bool {
	return m.ReceiverID == userID && !m.Read
}

func newMessage(id string, sender user.User, receiverID, text string, timestamp int64) Message {
	return Message{
		ID:               id,
		SenderID:         sender.ID,
		ReceiverID:       receiverID,
		SenderNickname:   sender.Nickname,
		SenderAvatar:     sender.Avatar,
		SenderAvatarType: sender.AvatarType,
		Text:             text,
		Timestamp:        timestamp,
	}
}
