package ports

import (
	"context"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UserService defines use-case operations for users.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	UpdateLoginTimestamp(ctx context.Context, username string) error
	All(ctx context.Context) ([]domain.UserSummary, error)
	Get(ctx context.Context, username string) (*domain.UserProfile, error)
	MessagesFrom(ctx context.Context, username string) ([]domain.DirectedMessage, error)
	MessagesTo(ctx context.Context, username string) ([]domain.DirectedMessage, error)
	CheckUserExists(ctx context.Context, username string) (bool, error)
}
