package ports

import (
	"context"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// CreateMessageInput carries a new message. FromUsername always comes from
// the authenticated identity.
type CreateMessageInput struct {
	FromUsername   string
	ToUsername     string
	Body           string
	IdempotencyKey string
}

// MessageService defines use-case operations for messages.
type MessageService interface {
	Get(ctx context.Context, id int64) (*domain.MessageDetail, error)
	Create(ctx context.Context, input CreateMessageInput) (*domain.Message, error)
	MarkRead(ctx context.Context, id int64) (*domain.ReadReceipt, error)

	// GetForUser fails with domain.ErrUnauthorized unless requester is the
	// sender or the recipient.
	GetForUser(ctx context.Context, id int64, requester string) (*domain.MessageDetail, error)
	// MarkReadForUser fails with domain.ErrUnauthorized unless requester is
	// the recipient.
	MarkReadForUser(ctx context.Context, id int64, requester string) (*domain.ReadReceipt, error)
}
