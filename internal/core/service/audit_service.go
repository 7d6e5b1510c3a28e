package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/messagely/messagely-api/internal/api/metrics"
	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// NopAuditSink drops every event. Used when no audit store is configured.
type NopAuditSink struct{}

func (NopAuditSink) Emit(domain.AuditEvent) {}

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that writes to repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single audit event.
func (s *auditService) Record(ctx context.Context, event domain.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record audit event: %w", err)
	}

	metrics.AuditEventsTotal.WithLabelValues("ok").Inc()
	s.log.Debug().
		Str("action", string(event.Action)).
		Str("username", event.Username).
		Msg("audit event recorded")
	return nil
}

func newAuditEvent(action domain.AuditAction, username string, messageID int64, at time.Time) domain.AuditEvent {
	return domain.AuditEvent{
		ID:        uuid.NewString(),
		Action:    action,
		Username:  username,
		MessageID: messageID,
		At:        at,
	}
}
