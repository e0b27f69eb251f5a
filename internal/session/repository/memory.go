package repository

import (
	"context"
	"sync"
	"time"

	"multitenant-cms/internal/session/domain"
)

// MemoryRepository keeps sessions in process memory. One mutex guards the id, access-token and
// refresh-token indices so they never disagree.
type MemoryRepository struct {
	mu        sync.RWMutex
	byID      map[string]*domain.Session
	byAccess  map[string]*domain.Session
	byRefresh map[string]*domain.Session
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:      make(map[string]*domain.Session),
		byAccess:  make(map[string]*domain.Session),
		byRefresh: make(map[string]*domain.Session),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(s)
}

func (r *MemoryRepository) insertLocked(s *domain.Session) error {
	if _, ok := r.byAccess[s.AccessToken]; ok {
		return ErrTokenConflict
	}
	if _, ok := r.byRefresh[s.RefreshToken]; ok {
		return ErrTokenConflict
	}
	stored := s.Clone()
	r.byID[stored.ID] = stored
	r.byAccess[stored.AccessToken] = stored
	r.byRefresh[stored.RefreshToken] = stored
	return nil
}

func (r *MemoryRepository) deleteLocked(s *domain.Session) {
	delete(r.byID, s.ID)
	delete(r.byAccess, s.AccessToken)
	delete(r.byRefresh, s.RefreshToken)
}

func (r *MemoryRepository) GetByAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAccess[token].Clone(), nil
}

func (r *MemoryRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byRefresh[token].Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		r.deleteLocked(s)
	}
	return nil
}

func (r *MemoryRepository) Rotate(ctx context.Context, oldID, oldRefreshToken string, next *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[oldID]
	if !ok || old.RefreshToken != oldRefreshToken {
		return ErrNotFound
	}
	r.deleteLocked(old)
	if err := r.insertLocked(next); err != nil {
		// Put the old pair back so a failed rotation leaves the store unchanged.
		_ = r.insertLocked(old)
		return err
	}
	return nil
}

func (r *MemoryRepository) SetActiveAccount(ctx context.Context, id string, accountID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if accountID == nil {
		s.ActiveAccountID = nil
	} else {
		v := *accountID
		s.ActiveAccountID = &v
	}
	return nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.byID {
		if s.AccessExpired(now) && s.RefreshExpired(now) {
			r.deleteLocked(s)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DeleteByUser(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.UserID == userID {
			r.deleteLocked(s)
		}
	}
	return nil
}

func (r *MemoryRepository) ClearActiveAccount(ctx context.Context, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.ActiveAccountID != nil && *s.ActiveAccountID == accountID {
			s.ActiveAccountID = nil
		}
	}
	return nil
}
