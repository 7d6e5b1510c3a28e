package ports

import (
	"context"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// UserRepository defines persistence operations for users. All username
// lookups are case-insensitive.
type UserRepository interface {
	// Create inserts the user. Returns domain.ErrUserExists when the store
	// rejects the username as a duplicate.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindPasswordHash returns the stored hash, or domain.ErrUserNotFound.
	FindPasswordHash(ctx context.Context, username string) (string, error)
	// TouchLastLogin sets last_login_at; domain.ErrUserNotFound if no row matched.
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
	Exists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]domain.UserSummary, error)
	FindProfile(ctx context.Context, username string) (*domain.UserProfile, error)
}
