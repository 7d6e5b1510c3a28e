package ports

import (
	"context"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// AuthService issues bearer tokens.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}
