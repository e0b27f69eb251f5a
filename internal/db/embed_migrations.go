package db

import "embed"

// MigrationFS embeds SQL migration files, one directory per driver (migrations/postgres, migrations/sqlite).
// Used by the migrate runner (cmd/migrate).
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var MigrationFS embed.FS
