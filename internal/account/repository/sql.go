package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"multitenant-cms/internal/account/domain"
	"multitenant-cms/internal/db"
)

var accountColumns = []string{"id", "name", "email", "is_active", "created_at"}

type accountRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (row *accountRow) toDomain() *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
	}
}

// SQLRepository is an account repository backed by Postgres or SQLite.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns an account repository that uses conn for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query, args, err := r.db.Builder.Select(accountColumns...).From("accounts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// List returns all accounts ordered by id.
func (r *SQLRepository) List(ctx context.Context) ([]*domain.Account, error) {
	query, args, err := r.db.Builder.Select(accountColumns...).From("accounts").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []accountRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]*domain.Account, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Create inserts a and sets a.ID from the generated key.
func (r *SQLRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	query, args, err := r.db.Builder.Insert("accounts").
		Columns("name", "email", "is_active", "created_at").
		Values(a.Name, a.Email, a.IsActive, a.CreatedAt.UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&a.ID); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Delete removes the account; memberships go with it through ON DELETE CASCADE.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.db.Builder.Delete("accounts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
