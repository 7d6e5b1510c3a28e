package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// recordingSink collects emitted audit events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *recordingSink) Emit(e domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

// memIdempotency is an in-memory ports.IdempotencyStore. A reserved key
// without a message id maps to pending.
type memIdempotency struct {
	mu         sync.Mutex
	keys       map[string]int64
	reserveErr error
	released   int
}

const pending int64 = -1

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]int64)}
}

func idemKey(username, key string) string {
	return strings.ToLower(username) + ":" + key
}

func (m *memIdempotency) Reserve(_ context.Context, username, key string) (int64, bool, error) {
	if m.reserveErr != nil {
		return 0, false, m.reserveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[idemKey(username, key)]
	switch {
	case !ok:
		m.keys[idemKey(username, key)] = pending
		return 0, true, nil
	case id == pending:
		return 0, false, domain.ErrRequestInProgress
	default:
		return id, false, nil
	}
}

func (m *memIdempotency) Remember(_ context.Context, username, key string, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[idemKey(username, key)] = messageID
	return nil
}

func (m *memIdempotency) Release(_ context.Context, username, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, idemKey(username, key))
	m.released++
	return nil
}

var errStore = errors.New("store unavailable")

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
