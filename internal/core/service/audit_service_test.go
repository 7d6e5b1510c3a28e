package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/messagely/messagely-api/internal/core/domain"
)

type stubAuditRepo struct {
	inserted []domain.AuditEvent
	err      error
}

func (r *stubAuditRepo) Insert(_ context.Context, event *domain.AuditEvent) error {
	if r.err != nil {
		return r.err
	}
	r.inserted = append(r.inserted, *event)
	return nil
}

func TestAuditService_Record_FillsDefaults(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	err := svc.Record(context.Background(), domain.AuditEvent{Action: domain.AuditUserLogin, Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
	got := repo.inserted[0]
	if got.ID == "" || got.At.IsZero() {
		t.Fatalf("expected id and timestamp to be set: %+v", got)
	}
}

func TestAuditService_Record_KeepsProvidedID(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	ev := newAuditEvent(domain.AuditMessageCreated, "alice", 7, fixedNow)
	if err := svc.Record(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.inserted[0].ID != ev.ID || !repo.inserted[0].At.Equal(fixedNow) || repo.inserted[0].MessageID != 7 {
		t.Fatalf("event altered: %+v", repo.inserted[0])
	}
}

func TestAuditService_Record_RepoError(t *testing.T) {
	svc := NewAuditService(&stubAuditRepo{err: errStore}, zerolog.Nop())

	err := svc.Record(context.Background(), domain.AuditEvent{Action: domain.AuditUserLogin})
	if !errors.Is(err, errStore) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
