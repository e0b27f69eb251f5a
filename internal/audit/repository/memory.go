package repository

import (
	"context"
	"errors"
	"sync"

	"multitenant-cms/internal/audit/domain"
)

// MemoryRepository is an append-only in-memory audit log.
type MemoryRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
	ids  map[string]struct{}
}

// NewMemoryRepository returns an empty in-memory audit repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{ids: make(map[string]struct{})}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.logs {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.AuditLog
	for i := len(r.logs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		c := *r.logs[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	if a.ID == "" {
		return errors.New("audit log id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[a.ID]; ok {
		return ErrDuplicateID
	}
	c := *a
	r.logs = append(r.logs, &c)
	r.ids[a.ID] = struct{}{}
	return nil
}
