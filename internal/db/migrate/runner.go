// Package migrate runs database migrations from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"multitenant-cms/internal/db"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Run applies the migrations for driver (postgres or sqlite) in the given direction against dsn.
// direction must be "up" or "down". Returns nil when already at the target version.
func Run(driver, dsn, direction string) error {
	if strings.TrimSpace(dsn) == "" {
		return errors.New("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	dir, databaseURL, err := target(driver, dsn)
	if err != nil {
		return err
	}

	sourceDriver, err := iofs.New(db.MigrationFS, dir)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// target maps a store driver to its migration directory and golang-migrate database URL.
func target(driver, dsn string) (dir, databaseURL string, err error) {
	switch driver {
	case db.DriverPostgres:
		return "migrations/postgres", dsn, nil
	case db.DriverSQLite:
		if !strings.HasPrefix(dsn, "sqlite3://") {
			dsn = "sqlite3://" + dsn
		}
		return "migrations/sqlite", dsn, nil
	default:
		return "", "", fmt.Errorf("migrate: unsupported driver %q", driver)
	}
}
