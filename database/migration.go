package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var schemaFS embed.FS

// migrateDB brings the schema up to the latest embedded migration. A database
// that is already current is not an error.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "bind migration target")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return errors.Wrap(err, "init migrator")
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}
