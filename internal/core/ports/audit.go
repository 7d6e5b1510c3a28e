package ports

import (
	"context"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditSink accepts audit events for asynchronous recording. Implementations
// must not block the request path for long.
type AuditSink interface {
	Emit(event domain.AuditEvent)
}

// AuditService records a single audit event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// IdempotencyStore remembers which message a client request key produced.
type IdempotencyStore interface {
	// Reserve claims key for username. reserved is true when the caller now
	// owns the key. Otherwise existingID is the message the key produced, or
	// the error is domain.ErrRequestInProgress while the owner is still running.
	Reserve(ctx context.Context, username, key string) (existingID int64, reserved bool, err error)
	// Remember stores messageID for a reserved key.
	Remember(ctx context.Context, username, key string, messageID int64) error
	// Release frees a reserved key after a failed create.
	Release(ctx context.Context, username, key string) error
}
