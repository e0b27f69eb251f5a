package migrate

import (
	"errors"
	"path/filepath"
	"testing"

	"multitenant-cms/internal/db"
)

func TestRun_EmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(db.DriverPostgres, dsn, "up")
		if err == nil {
			t.Fatalf("Run with DSN %q should return error", dsn)
		}
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	testCases := []string{"", "invalid", "UP", "Down", "both"}
	for _, direction := range testCases {
		t.Run(direction, func(t *testing.T) {
			err := Run(db.DriverSQLite, filepath.Join(t.TempDir(), "cms.db"), direction)
			if err == nil {
				t.Errorf("Run with direction %q should return error", direction)
			}
		})
	}
}

func TestRun_UnsupportedDriver(t *testing.T) {
	if err := Run("mysql", "root@/cms", "up"); err == nil {
		t.Fatal("Run with unsupported driver should return error")
	}
}

func TestRun_SQLiteUpThenDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.db")
	if err := Run(db.DriverSQLite, path, "up"); err != nil {
		t.Fatalf("Run up: %v", err)
	}
	// Second up is a no-op, not an error.
	if err := Run(db.DriverSQLite, path, "up"); err != nil {
		t.Fatalf("Run up again: %v", err)
	}

	conn, err := db.Open(db.DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var n int
	if err := conn.Get(&n, "SELECT COUNT(*) FROM sessions"); err != nil {
		t.Fatalf("sessions table missing after up: %v", err)
	}
	conn.Close()

	if err := Run(db.DriverSQLite, path, "down"); err != nil {
		t.Fatalf("Run down: %v", err)
	}
}

func TestErrNoChange(t *testing.T) {
	if ErrNoChange == nil {
		t.Fatal("ErrNoChange should not be nil")
	}
	if !errors.Is(ErrNoChange, ErrNoChange) {
		t.Error("ErrNoChange should be errors.Is compatible")
	}
}
