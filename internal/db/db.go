// Package db opens the SQL store (Postgres or SQLite) and exposes a squirrel builder with the
// placeholder format the driver expects.
package db

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers, as named in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps a sqlx handle with the statement builder matching its placeholder style.
type DB struct {
	*sqlx.DB
	Driver  string
	Builder sq.StatementBuilderType
}

// Open opens a connection for driver using dsn and pings it. Caller must call Close when done.
func Open(driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("db: empty DSN")
	}
	var sqlDriver string
	builder := sq.StatementBuilder
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
		builder = builder.PlaceholderFormat(sq.Dollar)
	case DriverSQLite:
		sqlDriver = "sqlite3"
		builder = builder.PlaceholderFormat(sq.Question)
		dsn = SQLiteDSN(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
	conn, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One writer at a time.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{DB: conn, Driver: driver, Builder: builder}, nil
}

// SQLiteDSN adds _foreign_keys=on to dsn unless it already configures foreign keys. The driver applies
// DSN options to every connection it opens, so ON DELETE clauses hold on pooled connections too.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
