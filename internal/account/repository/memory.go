package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"multitenant-cms/internal/account/domain"
)

// MemoryRepository is an in-memory Repository. IDs are assigned sequentially from 1.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[int64]*domain.Account
	nextID int64
}

// NewMemoryRepository returns an empty in-memory account repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]*domain.Account), nextID: 1}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Account, 0, len(r.byID))
	for _, a := range r.byID {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return ErrAccountExists
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.ID = r.nextID
	r.nextID++
	c := *a
	r.byID[a.ID] = &c
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}
