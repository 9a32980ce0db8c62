package domain

import "time"

// ChatMessage is one entry of a room's in-memory history log,
// immutable once appended.
type ChatMessage struct {
	SenderID    string
	DisplayName string
	Body        string
	SentAt      time.Time
}

func NewChatMessage(client *Client, body string) ChatMessage {
	msg := ChatMessage{
		Body:   body,
		SentAt: time.Now().UTC(),
	}
	if client != nil {
		msg.SenderID = client.ID
		msg.DisplayName = client.Name()
	}
	return msg
}
