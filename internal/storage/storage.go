// Package storage assembles the repositories of every bounded context over one backing store.
package storage

import (
	"context"
	"errors"
	"fmt"

	accountrepo "multitenant-cms/internal/account/repository"
	auditrepo "multitenant-cms/internal/audit/repository"
	"multitenant-cms/internal/db"
	membershiprepo "multitenant-cms/internal/membership/repository"
	sessionrepo "multitenant-cms/internal/session/repository"
	userrepo "multitenant-cms/internal/user/repository"
)

// DriverMemory keeps everything in process memory; state is lost on restart.
const DriverMemory = "memory"

// Repositories groups the repositories sharing one store.
type Repositories struct {
	Accounts    accountrepo.Repository
	Users       userrepo.Repository
	Memberships membershiprepo.Repository
	Sessions    sessionrepo.Repository
	Audit       auditrepo.Repository

	driver string
	conn   *db.DB
}

// NewMemory returns empty in-memory repositories.
func NewMemory() *Repositories {
	return &Repositories{
		Accounts:    accountrepo.NewMemoryRepository(),
		Users:       userrepo.NewMemoryRepository(),
		Memberships: membershiprepo.NewMemoryRepository(),
		Sessions:    sessionrepo.NewMemoryRepository(),
		Audit:       auditrepo.NewMemoryRepository(),
		driver:      DriverMemory,
	}
}

// NewSQL returns repositories backed by conn. The schema must already be migrated.
func NewSQL(conn *db.DB) *Repositories {
	return &Repositories{
		Accounts:    accountrepo.NewSQLRepository(conn),
		Users:       userrepo.NewSQLRepository(conn),
		Memberships: membershiprepo.NewSQLRepository(conn),
		Sessions:    sessionrepo.NewSQLRepository(conn),
		Audit:       auditrepo.NewSQLRepository(conn),
		driver:      conn.Driver,
		conn:        conn,
	}
}

// Open builds repositories for driver (memory, postgres or sqlite). dsn is ignored for memory.
func Open(driver, dsn string) (*Repositories, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case db.DriverPostgres, db.DriverSQLite:
		conn, err := db.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		return NewSQL(conn), nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
}

// Driver reports the backing store kind.
func (r *Repositories) Driver() string {
	return r.driver
}

// Ping checks the database connection; the memory store is always reachable.
func (r *Repositories) Ping(ctx context.Context) error {
	if r.conn == nil {
		return nil
	}
	return r.conn.PingContext(ctx)
}

// Close releases the database connection, if any.
func (r *Repositories) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// DeleteUser removes a user with its memberships and sessions. On SQL stores this is the single row
// delete; memberships and sessions go with it through ON DELETE CASCADE.
func (r *Repositories) DeleteUser(ctx context.Context, id int64) error {
	if r.conn != nil {
		return r.Users.Delete(ctx, id)
	}
	return errors.Join(
		r.Sessions.DeleteByUser(ctx, id),
		r.Memberships.DeleteByUser(ctx, id),
		r.Users.Delete(ctx, id),
	)
}

// DeleteAccount removes an account with its memberships and clears it as active account of open sessions.
// On SQL stores the schema does both (ON DELETE CASCADE and ON DELETE SET NULL) in the same statement.
func (r *Repositories) DeleteAccount(ctx context.Context, id int64) error {
	if r.conn != nil {
		return r.Accounts.Delete(ctx, id)
	}
	return errors.Join(
		r.Sessions.ClearActiveAccount(ctx, id),
		r.Memberships.DeleteByAccount(ctx, id),
		r.Accounts.Delete(ctx, id),
	)
}
