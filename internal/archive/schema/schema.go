// Package schema embeds the goose migration sets shared by the archive
// backends. Adapted from the teacher's internal/database/migrations.go,
// which drove goose against a single Postgres-only migrations directory;
// generalized here into one embedded set per dialect so internal/archive/sqlite
// and internal/archive/postgres can migrate their own *sql.DB without
// depending on a migrations directory relative to the working directory.
package schema

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// MigratePostgres runs every pending Postgres migration against db.
func MigratePostgres(db *sql.DB) error {
	return migrate(db, "postgres", postgresFS, "postgres")
}

// MigrateSQLite runs every pending SQLite migration against db.
func MigrateSQLite(db *sql.DB) error {
	return migrate(db, "sqlite3", sqliteFS, "sqlite")
}

func migrate(db *sql.DB, dialect string, fsys embed.FS, dir string) error {
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("schema: set dialect %s: %w", dialect, err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("schema: migrate %s: %w", dir, err)
	}
	return nil
}
