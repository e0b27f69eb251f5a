package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"multitenant-cms/internal/audit/domain"
	"multitenant-cms/internal/db"
)

var auditColumns = []string{"id", "user_id", "account_id", "session_id", "action", "resource", "ip", "metadata", "created_at"}

type auditRow struct {
	ID        string        `db:"id"`
	UserID    sql.NullInt64 `db:"user_id"`
	AccountID sql.NullInt64 `db:"account_id"`
	SessionID string        `db:"session_id"`
	Action    string        `db:"action"`
	Resource  string        `db:"resource"`
	IP        string        `db:"ip"`
	Metadata  string        `db:"metadata"`
	CreatedAt time.Time     `db:"created_at"`
}

func (row *auditRow) toDomain() *domain.AuditLog {
	a := &domain.AuditLog{
		ID: row.ID, SessionID: row.SessionID, Action: row.Action, Resource: row.Resource,
		IP: row.IP, Metadata: row.Metadata, CreatedAt: row.CreatedAt,
	}
	if row.UserID.Valid {
		v := row.UserID.Int64
		a.UserID = &v
	}
	if row.AccountID.Valid {
		v := row.AccountID.Int64
		a.AccountID = &v
	}
	return a
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// SQLRepository is an audit log repository backed by Postgres or SQLite.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns an audit log repository that uses conn for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	query, args, err := r.db.Builder.Select(auditColumns...).From("audit_logs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var row auditRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	return row.toDomain(), nil
}

// List returns audit logs newest first, paginated by limit and offset.
func (r *SQLRepository) List(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error) {
	query, args, err := r.db.Builder.Select(auditColumns...).
		From("audit_logs").
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	out := make([]*domain.AuditLog, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Create persists the audit log. The audit log must have ID set; a primary key clash yields ErrDuplicateID.
func (r *SQLRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	if a.ID == "" {
		return errors.New("audit log id is required")
	}
	query, args, err := r.db.Builder.Insert("audit_logs").
		Columns(auditColumns...).
		Values(a.ID, nullInt64(a.UserID), nullInt64(a.AccountID), a.SessionID, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
