package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"multitenant-cms/internal/membership/domain"
)

// MemoryRepository is an in-memory Repository that keeps memberships in insertion order.
type MemoryRepository struct {
	mu     sync.RWMutex
	list   []*domain.Membership
	nextID int64
}

// NewMemoryRepository returns an empty in-memory membership repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) GetByUserAndAccount(ctx context.Context, userID, accountID int64) (*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.list {
		if m.UserID == userID && m.AccountID == accountID {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Membership, error) {
	return r.filter(func(m *domain.Membership) bool { return m.UserID == userID }), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*domain.Membership, error) {
	return r.filter(func(*domain.Membership) bool { return true }), nil
}

func (r *MemoryRepository) filter(keep func(*domain.Membership) bool) []*domain.Membership {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Membership, 0, len(r.list))
	for _, m := range r.list {
		if keep(m) {
			c := *m
			out = append(out, &c)
		}
	}
	return out
}

func (r *MemoryRepository) Create(ctx context.Context, m *domain.Membership) error {
	if m.Role == "" {
		return errors.New("role is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.list {
		if existing.UserID == m.UserID && existing.AccountID == m.AccountID {
			return ErrMembershipExists
		}
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.ID = r.nextID
	r.nextID++
	c := *m
	r.list = append(r.list, &c)
	return nil
}

func (r *MemoryRepository) DeleteByUser(ctx context.Context, userID int64) error {
	r.remove(func(m *domain.Membership) bool { return m.UserID == userID })
	return nil
}

func (r *MemoryRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	r.remove(func(m *domain.Membership) bool { return m.AccountID == accountID })
	return nil
}

func (r *MemoryRepository) remove(drop func(*domain.Membership) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.list[:0]
	for _, m := range r.list {
		if !drop(m) {
			kept = append(kept, m)
		}
	}
	r.list = kept
}
