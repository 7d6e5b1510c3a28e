package handler

import (
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// createMessageRequest is the body of POST /messages. The sender is never
// read from the body.
type createMessageRequest struct {
	ToUsername string `json:"to_username" validate:"required"`
	Body       string `json:"body"        validate:"required,max=10000"`
}

type messageEnvelope[T any] struct {
	Message T `json:"message"`
}

type messagesEnvelope[T any] struct {
	Messages []T `json:"messages"`
}

type usersEnvelope struct {
	Users []domain.UserSummary `json:"users"`
}

type userEnvelope struct {
	User *domain.UserProfile `json:"user"`
}

// receivedMessage is an entry of GET /users/:username/to.
type receivedMessage struct {
	ID       int64          `json:"id"`
	Body     string         `json:"body"`
	SentAt   time.Time      `json:"sent_at"`
	ReadAt   *time.Time     `json:"read_at"`
	FromUser domain.Contact `json:"from_user"`
}

// sentMessage is an entry of GET /users/:username/from.
type sentMessage struct {
	ID     int64          `json:"id"`
	Body   string         `json:"body"`
	SentAt time.Time      `json:"sent_at"`
	ReadAt *time.Time     `json:"read_at"`
	ToUser domain.Contact `json:"to_user"`
}

func toReceivedMessages(msgs []domain.DirectedMessage) []receivedMessage {
	out := make([]receivedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, receivedMessage{
			ID:       m.ID,
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
			FromUser: m.Counterpart,
		})
	}
	return out
}

func toSentMessages(msgs []domain.DirectedMessage) []sentMessage {
	out := make([]sentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, sentMessage{
			ID:     m.ID,
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
			ToUser: m.Counterpart,
		})
	}
	return out
}
