package ports

import (
	"context"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) (*domain.Message, error)
	// FindByID returns the raw row, or domain.ErrMessageNotFound.
	FindByID(ctx context.Context, id int64) (*domain.Message, error)
	// FindDetail returns the message joined with both parties.
	FindDetail(ctx context.Context, id int64) (*domain.MessageDetail, error)
	// MarkRead sets read_at if it is still null and returns the effective value.
	MarkRead(ctx context.Context, id int64, at time.Time) (time.Time, error)
	// ListFrom returns messages sent by username, recipient embedded, oldest first.
	ListFrom(ctx context.Context, username string) ([]domain.DirectedMessage, error)
	// ListTo returns messages received by username, sender embedded, oldest first.
	ListTo(ctx context.Context, username string) ([]domain.DirectedMessage, error)
}
