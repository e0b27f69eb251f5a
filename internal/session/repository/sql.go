package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"multitenant-cms/internal/db"
	"multitenant-cms/internal/session/domain"
)

var sessionColumns = []string{
	"id", "user_id", "active_account_id", "access_token", "refresh_token",
	"access_expires_at", "refresh_expires_at", "created_at",
}

type sessionRow struct {
	ID               string        `db:"id"`
	UserID           int64         `db:"user_id"`
	ActiveAccountID  sql.NullInt64 `db:"active_account_id"`
	AccessToken      string        `db:"access_token"`
	RefreshToken     string        `db:"refresh_token"`
	AccessExpiresAt  time.Time     `db:"access_expires_at"`
	RefreshExpiresAt time.Time     `db:"refresh_expires_at"`
	CreatedAt        time.Time     `db:"created_at"`
}

func (row *sessionRow) toDomain() *domain.Session {
	s := &domain.Session{
		ID:               row.ID,
		UserID:           row.UserID,
		AccessToken:      row.AccessToken,
		RefreshToken:     row.RefreshToken,
		AccessExpiresAt:  row.AccessExpiresAt,
		RefreshExpiresAt: row.RefreshExpiresAt,
		CreatedAt:        row.CreatedAt,
	}
	if row.ActiveAccountID.Valid {
		id := row.ActiveAccountID.Int64
		s.ActiveAccountID = &id
	}
	return s
}

func nullAccountID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// SQLRepository is a session repository backed by Postgres or SQLite. The unique access_token and
// refresh_token columns give the dual index; rotation runs in a transaction.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns a session repository that uses conn for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// Create inserts s. A duplicate token yields ErrTokenConflict.
func (r *SQLRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.insert(ctx, r.db, s)
}

func (r *SQLRepository) insert(ctx context.Context, exec sqlx.ExecerContext, s *domain.Session) error {
	query, args, err := r.db.Builder.Insert("sessions").
		Columns(sessionColumns...).
		Values(s.ID, s.UserID, nullAccountID(s.ActiveAccountID), s.AccessToken, s.RefreshToken,
			s.AccessExpiresAt.UTC(), s.RefreshExpiresAt.UTC(), s.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrTokenConflict
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByAccessToken returns the session for token, or nil if not found.
func (r *SQLRepository) GetByAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.getOne(ctx, sq.Eq{"access_token": token})
}

// GetByRefreshToken returns the session for token, or nil if not found.
func (r *SQLRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.getOne(ctx, sq.Eq{"refresh_token": token})
}

func (r *SQLRepository) getOne(ctx context.Context, where sq.Eq) (*domain.Session, error) {
	query, args, err := r.db.Builder.Select(sessionColumns...).From("sessions").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.toDomain(), nil
}

// Delete removes the session by id. Missing rows are ignored.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	_, err := r.exec(ctx, r.db.Builder.Delete("sessions").Where(sq.Eq{"id": id}))
	return err
}

// Rotate deletes the old row and inserts next inside one transaction. The delete is conditioned on the
// old refresh token, so of two concurrent rotations only one sees a deleted row.
func (r *SQLRepository) Rotate(ctx context.Context, oldID, oldRefreshToken string, next *domain.Session) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rotate session: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	query, args, err := r.db.Builder.Delete("sessions").
		Where(sq.Eq{"id": oldID, "refresh_token": oldRefreshToken}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("rotate session: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err = r.insert(ctx, tx, next); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("rotate session: commit: %w", err)
	}
	return nil
}

// SetActiveAccount updates the active account of session id.
func (r *SQLRepository) SetActiveAccount(ctx context.Context, id string, accountID *int64) error {
	n, err := r.exec(ctx, r.db.Builder.Update("sessions").
		Set("active_account_id", nullAccountID(accountID)).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes sessions whose access and refresh expiries are both at or before now.
func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	return r.exec(ctx, r.db.Builder.Delete("sessions").Where(sq.And{
		sq.LtOrEq{"access_expires_at": now},
		sq.LtOrEq{"refresh_expires_at": now},
	}))
}

// DeleteByUser removes every session of userID.
func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.exec(ctx, r.db.Builder.Delete("sessions").Where(sq.Eq{"user_id": userID}))
	return err
}

// ClearActiveAccount unsets active_account_id wherever it equals accountID.
func (r *SQLRepository) ClearActiveAccount(ctx context.Context, accountID int64) error {
	_, err := r.exec(ctx, r.db.Builder.Update("sessions").
		Set("active_account_id", nil).
		Where(sq.Eq{"active_account_id": accountID}))
	return err
}

func (r *SQLRepository) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("session store: %w", err)
	}
	return res.RowsAffected()
}
