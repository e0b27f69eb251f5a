package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"multitenant-cms/internal/db"
	"multitenant-cms/internal/user/domain"
)

var userColumns = []string{"id", "email", "full_name", "is_active", "is_superuser", "password_hash", "created_at"}

type userRow struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	IsActive     bool      `db:"is_active"`
	IsSuperuser  bool      `db:"is_superuser"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (row *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		FullName:     row.FullName,
		IsActive:     row.IsActive,
		IsSuperuser:  row.IsSuperuser,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}
}

// SQLRepository is a user repository backed by Postgres or SQLite.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns a user repository that uses conn for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// GetByID returns the user for id, or nil if not found.
func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByEmail returns the user for email, or nil if not found.
func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

func (r *SQLRepository) getOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := r.db.Builder.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.toDomain(), nil
}

// List returns all users ordered by id.
func (r *SQLRepository) List(ctx context.Context) ([]*domain.User, error) {
	query, args, err := r.db.Builder.Select(userColumns...).From("users").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*domain.User, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Create inserts u and sets u.ID from the generated key.
func (r *SQLRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	query, args, err := r.db.Builder.Insert("users").
		Columns("email", "full_name", "is_active", "is_superuser", "password_hash", "created_at").
		Values(u.Email, u.FullName, u.IsActive, u.IsSuperuser, u.PasswordHash, u.CreatedAt.UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&u.ID); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Delete removes the user; memberships and sessions go with it through ON DELETE CASCADE.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.db.Builder.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
