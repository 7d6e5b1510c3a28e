package domain

import (
	"errors"
	"time"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	// ErrRequestInProgress means an idempotency key is claimed by a request
	// that has not finished yet.
	ErrRequestInProgress = errors.New("request already in progress")
)

// Message is a stored message row.
type Message struct {
	ID           int64      `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// MessageDetail is a message with both parties resolved.
type MessageDetail struct {
	ID       int64      `json:"id"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
	FromUser Contact    `json:"from_user"`
	ToUser   Contact    `json:"to_user"`
}

// IsParticipant reports whether username sent or received the message.
func (m *MessageDetail) IsParticipant(username string) bool {
	return SameUsername(username, m.FromUser.Username) || SameUsername(username, m.ToUser.Username)
}

// IsRecipient reports whether username is the message recipient.
func (m *MessageDetail) IsRecipient(username string) bool {
	return SameUsername(username, m.ToUser.Username)
}

// DirectedMessage is a message as seen from one side of the conversation:
// Counterpart is the recipient for sent messages and the sender for received ones.
type DirectedMessage struct {
	ID          int64
	Body        string
	SentAt      time.Time
	ReadAt      *time.Time
	Counterpart Contact
}

// ReadReceipt is returned when a message is marked read.
type ReadReceipt struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"read_at"`
}
