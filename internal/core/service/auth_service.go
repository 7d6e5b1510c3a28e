package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/messagely/messagely-api/internal/api/metrics"
	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// AuthService implements registration and login on top of UserService.
type AuthService struct {
	users     ports.UserService
	audit     ports.AuditSink
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(users ports.UserService, audit ports.AuditSink, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &AuthService{users: users, audit: audit, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register creates the account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	user, err := s.users.Register(ctx, in)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login checks credentials and returns a token. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return "", domain.ErrInvalidCredentials
	}

	ok, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return "", domain.ErrInvalidCredentials
	}

	if err := s.users.UpdateLoginTimestamp(ctx, username); err != nil {
		return "", err
	}

	// Sign with the stored spelling so later identity checks match exactly.
	profile, err := s.users.Get(ctx, username)
	if err != nil {
		return "", err
	}

	token, err := s.generateToken(profile.Username)
	if err != nil {
		return "", err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.audit.Emit(newAuditEvent(domain.AuditUserLogin, profile.Username, 0, time.Now().UTC()))
	return token, nil
}

func (s *AuthService) generateToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
