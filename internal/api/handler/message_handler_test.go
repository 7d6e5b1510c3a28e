package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

type stubMessageService struct {
	getForUserFn      func(ctx context.Context, id int64, requester string) (*domain.MessageDetail, error)
	createFn          func(ctx context.Context, input ports.CreateMessageInput) (*domain.Message, error)
	markReadForUserFn func(ctx context.Context, id int64, requester string) (*domain.ReadReceipt, error)
}

func (s *stubMessageService) Get(ctx context.Context, id int64) (*domain.MessageDetail, error) {
	return nil, errors.New("not used")
}

func (s *stubMessageService) Create(ctx context.Context, input ports.CreateMessageInput) (*domain.Message, error) {
	return s.createFn(ctx, input)
}

func (s *stubMessageService) MarkRead(ctx context.Context, id int64) (*domain.ReadReceipt, error) {
	return nil, errors.New("not used")
}

func (s *stubMessageService) GetForUser(ctx context.Context, id int64, requester string) (*domain.MessageDetail, error) {
	return s.getForUserFn(ctx, id, requester)
}

func (s *stubMessageService) MarkReadForUser(ctx context.Context, id int64, requester string) (*domain.ReadReceipt, error) {
	return s.markReadForUserFn(ctx, id, requester)
}

func TestMessageHandler_Create_UsesAuthenticatedSender(t *testing.T) {
	e := newTestEcho()
	sentAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubMessageService{
		createFn: func(ctx context.Context, in ports.CreateMessageInput) (*domain.Message, error) {
			if in.FromUsername != "alice" || in.ToUsername != "bob" || in.Body != "hi" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.IdempotencyKey != "k-1" {
				t.Fatalf("expected idempotency key, got %q", in.IdempotencyKey)
			}
			return &domain.Message{ID: 7, FromUsername: "alice", ToUsername: "bob", Body: "hi", SentAt: sentAt}, nil
		},
	}
	h := NewMessageHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/messages",
		strings.NewReader(`{"from_username":"mallory","to_username":"bob","body":"hi"}`))
	c.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	c.Set("username", "alice")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	msg, ok := decodeBody(t, rec)["message"].(map[string]any)
	if !ok {
		t.Fatalf("expected message in response")
	}
	if msg["id"] != float64(7) || msg["from_username"] != "alice" || msg["read_at"] != nil {
		t.Fatalf("unexpected message payload: %+v", msg)
	}
}

func TestMessageHandler_Create_MissingBody(t *testing.T) {
	e := newTestEcho()
	stub := &stubMessageService{
		createFn: func(ctx context.Context, in ports.CreateMessageInput) (*domain.Message, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewMessageHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/messages", strings.NewReader(`{"to_username":"bob"}`))
	c.Set("username", "alice")

	expectHTTPError(t, h.Create(c), http.StatusBadRequest)
}

func TestMessageHandler_Create_RequiresIdentity(t *testing.T) {
	e := newTestEcho()
	h := NewMessageHandler(&stubMessageService{})

	c, _ := newJSONContext(e, http.MethodPost, "/messages", strings.NewReader(`{"to_username":"bob","body":"hi"}`))

	expectHTTPError(t, h.Create(c), http.StatusUnauthorized)
}

func TestMessageHandler_Get_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubMessageService{
		getForUserFn: func(ctx context.Context, id int64, requester string) (*domain.MessageDetail, error) {
			if id != 42 || requester != "bob" {
				t.Fatalf("unexpected args: %d %s", id, requester)
			}
			return &domain.MessageDetail{
				ID:       42,
				Body:     "hello",
				FromUser: domain.Contact{Username: "alice", FirstName: "Alice"},
				ToUser:   domain.Contact{Username: "bob", FirstName: "Bob"},
			}, nil
		},
	}
	h := NewMessageHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/messages/42", nil)
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("username", "bob")

	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	msg := decodeBody(t, rec)["message"].(map[string]any)
	from := msg["from_user"].(map[string]any)
	to := msg["to_user"].(map[string]any)
	if from["username"] != "alice" || to["username"] != "bob" {
		t.Fatalf("unexpected parties: %+v", msg)
	}
}

func TestMessageHandler_Get_InvalidID(t *testing.T) {
	e := newTestEcho()
	h := NewMessageHandler(&stubMessageService{})

	for _, raw := range []string{"abc", "0", "-3"} {
		c, _ := newJSONContext(e, http.MethodGet, "/messages/"+raw, nil)
		c.SetParamNames("id")
		c.SetParamValues(raw)
		c.Set("username", "bob")

		expectHTTPError(t, h.Get(c), http.StatusBadRequest)
	}
}

func TestMessageHandler_Get_PropagatesServiceErrors(t *testing.T) {
	for _, want := range []error{domain.ErrUnauthorized, domain.ErrMessageNotFound} {
		e := newTestEcho()
		stub := &stubMessageService{
			getForUserFn: func(ctx context.Context, id int64, requester string) (*domain.MessageDetail, error) {
				return nil, want
			},
		}
		h := NewMessageHandler(stub)

		c, _ := newJSONContext(e, http.MethodGet, "/messages/1", nil)
		c.SetParamNames("id")
		c.SetParamValues("1")
		c.Set("username", "carol")

		if err := h.Get(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestMessageHandler_MarkRead_Success(t *testing.T) {
	e := newTestEcho()
	readAt := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	stub := &stubMessageService{
		markReadForUserFn: func(ctx context.Context, id int64, requester string) (*domain.ReadReceipt, error) {
			if id != 5 || requester != "bob" {
				t.Fatalf("unexpected args: %d %s", id, requester)
			}
			return &domain.ReadReceipt{ID: 5, ReadAt: readAt}, nil
		},
	}
	h := NewMessageHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/messages/5/read", nil)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set("username", "bob")

	if err := h.MarkRead(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	msg := decodeBody(t, rec)["message"].(map[string]any)
	if msg["id"] != float64(5) || msg["read_at"] != "2024-03-01T13:00:00Z" {
		t.Fatalf("unexpected receipt: %+v", msg)
	}
}

func TestMessageHandler_MarkRead_NotRecipient(t *testing.T) {
	e := newTestEcho()
	stub := &stubMessageService{
		markReadForUserFn: func(ctx context.Context, id int64, requester string) (*domain.ReadReceipt, error) {
			return nil, domain.ErrUnauthorized
		},
	}
	h := NewMessageHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/messages/5/read", nil)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set("username", "alice")

	if err := h.MarkRead(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
