package model

import "time"

type ChatMessage struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	SenderID    int64     `json:"sender_id"`
	Message     string    `json:"message"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessageWithSender is a chat message joined with the sender's display name.
// SenderName is already masked for anonymous messages; SenderID is always
// the real sender.
type MessageWithSender struct {
	ChatMessage
	SenderName string `json:"sender_name"`
}
