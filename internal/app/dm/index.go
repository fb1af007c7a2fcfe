package dm

import "sort"

// sortLog orders messages by timestamp, keeping log order among equal ones.
func sortLog(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
}

// conversationsFor builds the conversation list of userID from a log sorted
// by sortLog. The last message per partner is the latest one, and among equal
// timestamps the one further down the log. Unread counts every message from
// the partner to userID that is still unread. Conversations are returned most
// recent first.
func conversationsFor(messages []Message, userID string) []Conversation {
	byPartner := make(map[string]*Conversation)
	order := make([]string, 0)

	for _, m := range messages {
		var partnerID string
		switch userID {
		case m.SenderID:
			partnerID = m.ReceiverID
		case m.ReceiverID:
			partnerID = m.SenderID
		default:
			continue
		}

		conv, ok := byPartner[partnerID]
		if !ok {
			conv = &Conversation{PartnerID: partnerID}
			byPartner[partnerID] = conv
			order = append(order, partnerID)
		}

		if !ok || m.Timestamp >= conv.LastMessage.Timestamp {
			conv.LastMessage = m
		}
		if m.unreadBy(userID) {
			conv.UnreadCount++
		}
	}

	conversations := make([]Conversation, 0, len(order))
	for _, partnerID := range order {
		conversations = append(conversations, *byPartner[partnerID])
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.Timestamp > conversations[j].LastMessage.Timestamp
	})
	return conversations
}
