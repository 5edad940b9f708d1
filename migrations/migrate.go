// Package migrations embeds the SQL schemas of the notes client (SQLite) and
// the reference remote store (PostgreSQL) and applies them with goose.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed client/*.sql
var clientMigrations embed.FS

//go:embed server/*.sql
var serverMigrations embed.FS

// MigrateClient brings the local SQLite database up to date.
func MigrateClient(db *sql.DB) error {
	return migrate(db, clientMigrations, "sqlite3", "client")
}

// MigrateServer brings the PostgreSQL database of the remote store up to date.
func MigrateServer(db *sql.DB) error {
	return migrate(db, serverMigrations, "pgx", "server")
}

func migrate(db *sql.DB, fsys fs.FS, dialect, dir string) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
