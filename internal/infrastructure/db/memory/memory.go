// Package memory keeps users and messages in process memory. It backs
// STORE=memory for local runs and the HTTP scenario tests; nothing survives
// a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// UserRepository implements ports.UserRepository keyed by lower-cased username.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, exists := r.users[key]; exists {
		return nil, domain.ErrUserExists
	}
	r.users[key] = *user
	out := *user
	return &out, nil
}

func (r *UserRepository) lookup(username string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[strings.ToLower(username)]
	return u, ok
}

func (r *UserRepository) FindPasswordHash(_ context.Context, username string) (string, error) {
	u, ok := r.lookup(username)
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return u.PasswordHash, nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(username)
	u, ok := r.users[key]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLoginAt = &at
	r.users[key] = u
	return nil
}

func (r *UserRepository) Exists(_ context.Context, username string) (bool, error) {
	_, ok := r.lookup(username)
	return ok, nil
}

func (r *UserRepository) List(_ context.Context) ([]domain.UserSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.UserSummary, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, domain.UserSummary{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UserRepository) FindProfile(_ context.Context, username string) (*domain.UserProfile, error) {
	u, ok := r.lookup(username)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.UserProfile{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinAt:      u.JoinAt,
		LastLoginAt: u.LastLoginAt,
	}, nil
}

func (r *UserRepository) contact(username string) domain.Contact {
	u, _ := r.lookup(username)
	return domain.Contact{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
}

// MessageRepository implements ports.MessageRepository. Parties are resolved
// through the UserRepository it was built with.
type MessageRepository struct {
	mu     sync.RWMutex
	users  *UserRepository
	rows   []domain.Message
	nextID int64
}

func NewMessageRepository(users *UserRepository) *MessageRepository {
	return &MessageRepository{users: users}
}

// Len returns the number of stored messages.
func (r *MessageRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func (r *MessageRepository) Create(_ context.Context, m *domain.Message) (*domain.Message, error) {
	from, okFrom := r.users.lookup(m.FromUsername)
	to, okTo := r.users.lookup(m.ToUsername)
	if !okFrom || !okTo {
		return nil, domain.ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	row := domain.Message{
		ID:           r.nextID,
		FromUsername: from.Username,
		ToUsername:   to.Username,
		Body:         m.Body,
		SentAt:       m.SentAt,
	}
	r.rows = append(r.rows, row)
	return &row, nil
}

// index returns the slice position of id, or -1. Callers hold mu.
func (r *MessageRepository) index(id int64) int {
	for i := range r.rows {
		if r.rows[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *MessageRepository) FindByID(_ context.Context, id int64) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(id)
	if i < 0 {
		return nil, domain.ErrMessageNotFound
	}
	out := r.rows[i]
	return &out, nil
}

func (r *MessageRepository) FindDetail(ctx context.Context, id int64) (*domain.MessageDetail, error) {
	m, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.MessageDetail{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
		FromUser: r.users.contact(m.FromUsername),
		ToUser:   r.users.contact(m.ToUsername),
	}, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, id int64, at time.Time) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return time.Time{}, domain.ErrMessageNotFound
	}
	if r.rows[i].ReadAt == nil {
		r.rows[i].ReadAt = &at
	}
	return *r.rows[i].ReadAt, nil
}

func (r *MessageRepository) ListFrom(_ context.Context, username string) ([]domain.DirectedMessage, error) {
	return r.list(username, true), nil
}

func (r *MessageRepository) ListTo(_ context.Context, username string) ([]domain.DirectedMessage, error) {
	return r.list(username, false), nil
}

// list walks rows in insertion order, which is also sent_at order.
func (r *MessageRepository) list(username string, sent bool) []domain.DirectedMessage {
	r.mu.RLock()
	rows := append([]domain.Message(nil), r.rows...)
	r.mu.RUnlock()

	out := make([]domain.DirectedMessage, 0)
	for _, m := range rows {
		self, other := m.ToUsername, m.FromUsername
		if sent {
			self, other = m.FromUsername, m.ToUsername
		}
		if !strings.EqualFold(self, username) {
			continue
		}
		out = append(out, domain.DirectedMessage{
			ID:          m.ID,
			Body:        m.Body,
			SentAt:      m.SentAt,
			ReadAt:      m.ReadAt,
			Counterpart: r.users.contact(other),
		})
	}
	return out
}
