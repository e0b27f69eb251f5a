// Package dbtest provides migrated SQLite databases for repository tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"multitenant-cms/internal/db"
	"multitenant-cms/internal/db/migrate"
)

// NewSQLite migrates a fresh SQLite file under t.TempDir and opens it. The connection is closed on cleanup.
func NewSQLite(t testing.TB) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cms.db")
	if err := migrate.Run(db.DriverSQLite, path, "up"); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	conn, err := db.Open(db.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// InsertUser adds a bare user row and returns its id.
func InsertUser(t testing.TB, conn *db.DB, email string) int64 {
	t.Helper()
	var id int64
	if err := conn.Get(&id, "INSERT INTO users (email, password_hash) VALUES (?, 'x') RETURNING id", email); err != nil {
		t.Fatalf("insert user %s: %v", email, err)
	}
	return id
}

// InsertAccount adds a bare account row and returns its id.
func InsertAccount(t testing.TB, conn *db.DB, name string) int64 {
	t.Helper()
	var id int64
	if err := conn.Get(&id, "INSERT INTO accounts (name, email) VALUES (?, ?) RETURNING id", name, name+"@accounts.test"); err != nil {
		t.Fatalf("insert account %s: %v", name, err)
	}
	return id
}
