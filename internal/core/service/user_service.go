package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/messagely/messagely-api/internal/api/metrics"
	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// UserService implements user registration, authentication and lookups.
type UserService struct {
	users      ports.UserRepository
	messages   ports.MessageRepository
	audit      ports.AuditSink
	bcryptCost int
	logger     zerolog.Logger
	now        func() time.Time
}

func NewUserService(
	users ports.UserRepository,
	messages ports.MessageRepository,
	audit ports.AuditSink,
	bcryptCost int,
	logger zerolog.Logger,
) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &UserService{
		users:      users,
		messages:   messages,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new account. The existence check gives a fast conflict
// answer; the repository still maps a unique violation to ErrUserExists for
// concurrent registrations that both pass the check.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}

	exists, err := s.users.Exists(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		JoinAt:       now,
		LastLoginAt:  &now,
	})
	if err != nil {
		return nil, err
	}

	metrics.UsersRegisteredTotal.Inc()
	s.audit.Emit(newAuditEvent(domain.AuditUserRegistered, created.Username, 0, now))
	s.logger.Info().Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Authenticate reports whether password matches the stored hash. Unknown
// users yield false, not an error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	hash, err := s.users.FindPasswordHash(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("authenticate: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

func (s *UserService) UpdateLoginTimestamp(ctx context.Context, username string) error {
	return s.users.TouchLastLogin(ctx, username, s.now())
}

func (s *UserService) All(ctx context.Context) ([]domain.UserSummary, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, username string) (*domain.UserProfile, error) {
	return s.users.FindProfile(ctx, username)
}

// MessagesFrom lists messages sent by username with each recipient embedded.
func (s *UserService) MessagesFrom(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
	if err := s.ensureExists(ctx, username); err != nil {
		return nil, err
	}
	return s.messages.ListFrom(ctx, username)
}

// MessagesTo lists messages received by username with each sender embedded.
func (s *UserService) MessagesTo(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
	if err := s.ensureExists(ctx, username); err != nil {
		return nil, err
	}
	return s.messages.ListTo(ctx, username)
}

func (s *UserService) CheckUserExists(ctx context.Context, username string) (bool, error) {
	return s.users.Exists(ctx, username)
}

func (s *UserService) ensureExists(ctx context.Context, username string) error {
	ok, err := s.users.Exists(ctx, username)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}
