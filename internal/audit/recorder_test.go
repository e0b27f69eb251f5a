package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"multitenant-cms/internal/audit/domain"
	auditrepo "multitenant-cms/internal/audit/repository"
	telemetrydomain "multitenant-cms/internal/telemetry/domain"
)

func TestFromSessionEvent(t *testing.T) {
	acct := int64(2)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := FromSessionEvent(&telemetrydomain.Event{
		ID:         "evt-1",
		Type:       telemetrydomain.EventAccountSwitched,
		SessionID:  "sess-1",
		UserID:     3,
		AccountID:  &acct,
		Source:     "session_manager",
		Metadata:   map[string]string{"previous_account_id": "1"},
		OccurredAt: at,
	})
	uid := int64(3)
	want := &domain.AuditLog{
		ID:        "evt-1",
		UserID:    &uid,
		AccountID: &acct,
		SessionID: "sess-1",
		Action:    "account_switched",
		Resource:  "session",
		IP:        "stream",
		Metadata:  `{"previous_account_id":"1","source":"session_manager"}`,
		CreatedAt: at,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromSessionEvent mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_Handle_Idempotent(t *testing.T) {
	repo := auditrepo.NewMemoryRepository()
	rec := NewRecorder(repo, nil)
	ctx := context.Background()
	e := &telemetrydomain.Event{ID: "evt-1", Type: telemetrydomain.EventSessionIssued, UserID: 1, OccurredAt: time.Now()}

	for i := 0; i < 2; i++ {
		if err := rec.Handle(ctx, e); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	logs, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	if logs[0].Action != "session_issued" {
		t.Errorf("Action = %q, want session_issued", logs[0].Action)
	}
}

// racingRepo simulates another worker storing the event between the lookup and the insert.
type racingRepo struct {
	auditrepo.Repository
	createErr error
	creates   int
}

func (r *racingRepo) GetByID(context.Context, string) (*domain.AuditLog, error) { return nil, nil }

func (r *racingRepo) Create(context.Context, *domain.AuditLog) error {
	r.creates++
	return r.createErr
}

func TestRecorder_Handle_ConcurrentDuplicate(t *testing.T) {
	repo := &racingRepo{createErr: auditrepo.ErrDuplicateID}
	rec := NewRecorder(repo, nil)
	e := &telemetrydomain.Event{ID: "evt-7", Type: telemetrydomain.EventSessionIssued, UserID: 1, OccurredAt: time.Now()}

	if err := rec.Handle(context.Background(), e); err != nil {
		t.Fatalf("Handle = %v, want nil for an event stored by another worker", err)
	}
	if repo.creates != 1 {
		t.Errorf("creates = %d, want 1", repo.creates)
	}
}

func TestRecorder_Handle_StoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	rec := NewRecorder(&racingRepo{createErr: boom}, nil)
	e := &telemetrydomain.Event{ID: "evt-8", Type: telemetrydomain.EventSessionIssued, OccurredAt: time.Now()}

	if err := rec.Handle(context.Background(), e); !errors.Is(err, boom) {
		t.Fatalf("Handle = %v, want wrapped %v", err, boom)
	}
}
