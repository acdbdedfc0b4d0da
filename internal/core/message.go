package core

import "time"

// Message is the domain model for a chat message.
type Message struct {
	ID        string
	Chat      ChannelID
	Username  string
	Body      string
	Timestamp time.Time
}
