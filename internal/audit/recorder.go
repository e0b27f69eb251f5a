package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"multitenant-cms/internal/audit/domain"
	auditrepo "multitenant-cms/internal/audit/repository"
	telemetrydomain "multitenant-cms/internal/telemetry/domain"
)

// IPStream is recorded as the IP of entries that come from the event stream rather than a request.
const IPStream = "stream"

// Recorder persists session lifecycle events read from the event stream as audit entries.
// Entries keep the event ID, so a redelivered event is stored once.
type Recorder struct {
	repo   auditrepo.Repository
	logger *zap.Logger
}

func NewRecorder(repo auditrepo.Repository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Handle stores e unless an entry with its ID already exists. It matches producer.Handler.
// Two workers racing on the same event both succeed; the loser's insert hits ErrDuplicateID.
func (r *Recorder) Handle(ctx context.Context, e *telemetrydomain.Event) error {
	if e.ID == "" {
		r.logger.Warn("dropping event without id", zap.String("type", e.Type), zap.String("session_id", e.SessionID))
		return nil
	}
	existing, err := r.repo.GetByID(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("record event %s: %w", e.ID, err)
	}
	if existing != nil {
		r.logger.Debug("event already recorded", zap.String("event_id", e.ID))
		return nil
	}
	if err := r.repo.Create(ctx, FromSessionEvent(e)); err != nil {
		if errors.Is(err, auditrepo.ErrDuplicateID) {
			r.logger.Debug("event recorded concurrently", zap.String("event_id", e.ID))
			return nil
		}
		return fmt.Errorf("record event %s: %w", e.ID, err)
	}
	return nil
}

// FromSessionEvent converts a session lifecycle event into an audit entry. The action is the event type.
func FromSessionEvent(e *telemetrydomain.Event) *domain.AuditLog {
	entry := &domain.AuditLog{
		ID:        e.ID,
		AccountID: e.AccountID,
		SessionID: e.SessionID,
		Action:    e.Type,
		Resource:  domain.ResourceSession,
		IP:        IPStream,
		CreatedAt: e.OccurredAt.UTC(),
	}
	if e.UserID != 0 {
		uid := e.UserID
		entry.UserID = &uid
	}
	meta := map[string]string{"source": e.Source}
	for k, v := range e.Metadata {
		meta[k] = v
	}
	if b, err := json.Marshal(meta); err == nil {
		entry.Metadata = string(b)
	}
	return entry
}
