package entity

import "time"

// Message is one entry of a conversation's ordered history.
// Read is written false at creation and not flipped afterwards.
// Read tracking is aggregate only, see Conversation.UnreadCount.
type Message struct {
	ID         string    `json:"id" firestore:"-"`
	SenderID   string    `json:"sender_id" firestore:"senderId"`
	SenderName string    `json:"sender_name" firestore:"senderName"`
	Message    string    `json:"message" firestore:"message"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp"`
	Read       bool      `json:"read" firestore:"read"`
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}
