package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"multitenant-cms/internal/db"
	"multitenant-cms/internal/membership/domain"
)

var membershipColumns = []string{"id", "account_id", "user_id", "role", "created_at"}

type membershipRow struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	UserID    int64     `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (row *membershipRow) toDomain() *domain.Membership {
	return &domain.Membership{
		ID:        row.ID,
		AccountID: row.AccountID,
		UserID:    row.UserID,
		Role:      row.Role,
		CreatedAt: row.CreatedAt,
	}
}

// SQLRepository is a membership repository backed by Postgres or SQLite.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns a membership repository that uses conn for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// GetByUserAndAccount returns the membership for the given user and account, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) GetByUserAndAccount(ctx context.Context, userID, accountID int64) (*domain.Membership, error) {
	query, args, err := r.db.Builder.Select(membershipColumns...).
		From("memberships").
		Where(sq.Eq{"user_id": userID, "account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var row membershipRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return row.toDomain(), nil
}

// ListByUser returns all memberships of userID ordered by id.
func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Membership, error) {
	return r.list(ctx, sq.Eq{"user_id": userID})
}

// List returns all memberships ordered by id.
func (r *SQLRepository) List(ctx context.Context) ([]*domain.Membership, error) {
	return r.list(ctx, nil)
}

func (r *SQLRepository) list(ctx context.Context, where sq.Sqlizer) ([]*domain.Membership, error) {
	b := r.db.Builder.Select(membershipColumns...).From("memberships").OrderBy("id")
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []membershipRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	out := make([]*domain.Membership, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Create inserts m and sets m.ID from the generated key.
func (r *SQLRepository) Create(ctx context.Context, m *domain.Membership) error {
	if m.Role == "" {
		return errors.New("role is required")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query, args, err := r.db.Builder.Insert("memberships").
		Columns("account_id", "user_id", "role", "created_at").
		Values(m.AccountID, m.UserID, m.Role, m.CreatedAt.UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&m.ID); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrMembershipExists
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.delete(ctx, sq.Eq{"user_id": userID})
}

func (r *SQLRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	return r.delete(ctx, sq.Eq{"account_id": accountID})
}

func (r *SQLRepository) delete(ctx context.Context, where sq.Eq) error {
	query, args, err := r.db.Builder.Delete("memberships").Where(where).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
