package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/messagely/messagely-api/internal/api/metrics"
	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

const releaseTimeout = 2 * time.Second

type MessageService struct {
	messages ports.MessageRepository
	users    ports.UserRepository
	idem     ports.IdempotencyStore
	audit    ports.AuditSink
	logger   zerolog.Logger
	now      func() time.Time
}

// NewMessageService returns a MessageService. idem and audit may be nil.
func NewMessageService(
	messages ports.MessageRepository,
	users ports.UserRepository,
	idem ports.IdempotencyStore,
	audit ports.AuditSink,
	logger zerolog.Logger,
) *MessageService {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &MessageService{
		messages: messages,
		users:    users,
		idem:     idem,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MessageService) Get(ctx context.Context, id int64) (*domain.MessageDetail, error) {
	return s.messages.FindDetail(ctx, id)
}

// Create stores a new message. When an idempotency key is supplied, the key
// is reserved before inserting: a retry by the same sender returns the
// original message, and a retry that races the first request gets
// domain.ErrRequestInProgress.
func (s *MessageService) Create(ctx context.Context, in ports.CreateMessageInput) (*domain.Message, error) {
	if in.FromUsername == "" || strings.TrimSpace(in.ToUsername) == "" || in.Body == "" {
		return nil, domain.ErrInvalidInput
	}

	keyed := s.idem != nil && in.IdempotencyKey != ""
	if keyed {
		replay, reserved, err := s.reserve(ctx, in)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
		if reserved {
			created, err := s.insert(ctx, in)
			if err != nil {
				s.release(in)
			}
			return created, err
		}
	}
	return s.insert(ctx, in)
}

func (s *MessageService) insert(ctx context.Context, in ports.CreateMessageInput) (*domain.Message, error) {
	exists, err := s.users.Exists(ctx, in.ToUsername)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	now := s.now()
	created, err := s.messages.Create(ctx, &domain.Message{
		FromUsername: in.FromUsername,
		ToUsername:   in.ToUsername,
		Body:         in.Body,
		SentAt:       now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("from", in.FromUsername).Msg("failed to create message")
		return nil, err
	}

	if s.idem != nil && in.IdempotencyKey != "" {
		if err := s.idem.Remember(ctx, in.FromUsername, in.IdempotencyKey, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	metrics.MessagesCreatedTotal.Inc()
	s.audit.Emit(newAuditEvent(domain.AuditMessageCreated, created.FromUsername, created.ID, now))
	s.logger.Info().Int64("message_id", created.ID).Str("from", created.FromUsername).Str("to", created.ToUsername).Msg("message created")
	return created, nil
}

// reserve claims the idempotency key. It returns the earlier message on a
// replay, reserved=true when this request owns the key, or
// domain.ErrRequestInProgress. Store failures degrade to a normal create.
func (s *MessageService) reserve(ctx context.Context, in ports.CreateMessageInput) (*domain.Message, bool, error) {
	id, reserved, err := s.idem.Reserve(ctx, in.FromUsername, in.IdempotencyKey)
	switch {
	case errors.Is(err, domain.ErrRequestInProgress):
		metrics.IdempotencyTotal.WithLabelValues("in_progress").Inc()
		return nil, false, err
	case err != nil:
		s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency reserve failed, creating anyway")
		metrics.IdempotencyTotal.WithLabelValues("error").Inc()
		return nil, false, nil
	case reserved:
		metrics.IdempotencyTotal.WithLabelValues("miss").Inc()
		return nil, true, nil
	}

	existing, err := s.messages.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("message_id", id).Msg("idempotent message vanished, creating anyway")
		return nil, false, nil
	}
	metrics.IdempotencyTotal.WithLabelValues("hit").Inc()
	s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Int64("message_id", id).Msg("idempotent replay")
	return existing, false, nil
}

// release frees the key so the client can retry. The request context may
// already be done, so it runs under its own deadline.
func (s *MessageService) release(in ports.CreateMessageInput) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := s.idem.Release(ctx, in.FromUsername, in.IdempotencyKey); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
	}
}

// MarkRead sets read_at once; later calls return the first timestamp.
func (s *MessageService) MarkRead(ctx context.Context, id int64) (*domain.ReadReceipt, error) {
	readAt, err := s.messages.MarkRead(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	return &domain.ReadReceipt{ID: id, ReadAt: readAt}, nil
}

func (s *MessageService) GetForUser(ctx context.Context, id int64, requester string) (*domain.MessageDetail, error) {
	msg, err := s.messages.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.IsParticipant(requester) {
		metrics.AuthorizationDeniedTotal.WithLabelValues("get_message").Inc()
		return nil, domain.ErrUnauthorized
	}
	return msg, nil
}

func (s *MessageService) MarkReadForUser(ctx context.Context, id int64, requester string) (*domain.ReadReceipt, error) {
	msg, err := s.messages.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.IsRecipient(requester) {
		metrics.AuthorizationDeniedTotal.WithLabelValues("mark_read").Inc()
		return nil, domain.ErrUnauthorized
	}

	receipt, err := s.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.MessagesReadTotal.Inc()
	s.audit.Emit(newAuditEvent(domain.AuditMessageRead, msg.ToUser.Username, id, receipt.ReadAt))
	s.logger.Info().Int64("message_id", id).Str("reader", msg.ToUser.Username).Msg("message read")
	return receipt, nil
}
