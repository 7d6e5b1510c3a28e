package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

type stubUserService struct {
	allFn          func(ctx context.Context) ([]domain.UserSummary, error)
	getFn          func(ctx context.Context, username string) (*domain.UserProfile, error)
	messagesFromFn func(ctx context.Context, username string) ([]domain.DirectedMessage, error)
	messagesToFn   func(ctx context.Context, username string) ([]domain.DirectedMessage, error)
}

func (s *stubUserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return nil, errors.New("not used")
}

func (s *stubUserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	return false, errors.New("not used")
}

func (s *stubUserService) UpdateLoginTimestamp(ctx context.Context, username string) error {
	return errors.New("not used")
}

func (s *stubUserService) All(ctx context.Context) ([]domain.UserSummary, error) {
	return s.allFn(ctx)
}

func (s *stubUserService) Get(ctx context.Context, username string) (*domain.UserProfile, error) {
	return s.getFn(ctx, username)
}

func (s *stubUserService) MessagesFrom(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
	return s.messagesFromFn(ctx, username)
}

func (s *stubUserService) MessagesTo(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
	return s.messagesToFn(ctx, username)
}

func (s *stubUserService) CheckUserExists(ctx context.Context, username string) (bool, error) {
	return false, errors.New("not used")
}

func TestUserHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		allFn: func(ctx context.Context) ([]domain.UserSummary, error) {
			return []domain.UserSummary{
				{Username: "alice", FirstName: "Alice", LastName: "L"},
				{Username: "bob", FirstName: "Bob", LastName: "B"},
			}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/users", nil)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	users, ok := decodeBody(t, rec)["users"].([]any)
	if !ok || len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", users)
	}
	first := users[0].(map[string]any)
	if _, leaked := first["phone"]; leaked {
		t.Fatalf("list must not include phone: %+v", first)
	}
}

func TestUserHandler_List_EmptyIsArray(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		allFn: func(ctx context.Context) ([]domain.UserSummary, error) { return nil, nil },
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/users", nil)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Body.String(); got != "{\"users\":[]}\n" {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestUserHandler_Get(t *testing.T) {
	e := newTestEcho()
	joined := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubUserService{
		getFn: func(ctx context.Context, username string) (*domain.UserProfile, error) {
			if username != "alice" {
				t.Fatalf("unexpected username %q", username)
			}
			return &domain.UserProfile{Username: "alice", Phone: "+1555", JoinAt: joined, LastLoginAt: &joined}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/users/alice", nil)
	c.SetParamNames("username")
	c.SetParamValues("alice")

	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["phone"] != "+1555" || user["join_at"] != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password must never be serialized")
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		getFn: func(ctx context.Context, username string) (*domain.UserProfile, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewUserHandler(stub)

	c, _ := newJSONContext(e, http.MethodGet, "/users/ghost", nil)
	c.SetParamNames("username")
	c.SetParamValues("ghost")

	if err := h.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_MessagesTo_UsesFromUser(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		messagesToFn: func(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
			return []domain.DirectedMessage{
				{ID: 1, Body: "hi", Counterpart: domain.Contact{Username: "alice"}},
			}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/users/bob/to", nil)
	c.SetParamNames("username")
	c.SetParamValues("bob")

	if err := h.MessagesTo(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	msgs := decodeBody(t, rec)["messages"].([]any)
	msg := msgs[0].(map[string]any)
	from, ok := msg["from_user"].(map[string]any)
	if !ok || from["username"] != "alice" {
		t.Fatalf("expected from_user alice, got %+v", msg)
	}
	if _, ok := msg["to_user"]; ok {
		t.Fatalf("received messages must not carry to_user")
	}
}

func TestUserHandler_MessagesFrom_UsesToUser(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		messagesFromFn: func(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
			return nil, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/users/alice/from", nil)
	c.SetParamNames("username")
	c.SetParamValues("alice")

	if err := h.MessagesFrom(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Body.String(); got != "{\"messages\":[]}\n" {
		t.Fatalf("unexpected body: %s", got)
	}
}
