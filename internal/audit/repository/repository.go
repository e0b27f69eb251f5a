package repository

import (
	"context"
	"errors"

	"multitenant-cms/internal/audit/domain"
)

// ErrDuplicateID is returned by Create when an entry with the same ID is already stored.
var ErrDuplicateID = errors.New("audit log id already exists")

// Repository defines persistence for audit logs.
type Repository interface {
	// GetByID returns the audit log for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.AuditLog, error)
	// List returns audit logs newest first, paginated by limit and offset.
	List(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error)
	// Create persists a. The audit log must have ID set; a reused ID yields ErrDuplicateID.
	Create(ctx context.Context, a *domain.AuditLog) error
}
