// Package database provides the embedded schema migrations of the local store.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// GetMigrate returns a migrate instance bound to db.
// Do not call Close on the result: it would close db as well.
func GetMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, "sqlite", driver)
}

// MigrateUp applies every pending migration. numSteps limits how many are
// applied; 0 means all.
func MigrateUp(db *sql.DB, numSteps uint) error {
	m, err := GetMigrate(db)
	if err != nil {
		return err
	}

	if numSteps > 0 {
		err = m.Steps(int(numSteps))
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MigrateDown reverts migrations. numSteps limits how many are reverted;
// 0 means all.
func MigrateDown(db *sql.DB, numSteps uint) error {
	m, err := GetMigrate(db)
	if err != nil {
		return err
	}

	if numSteps > 0 {
		err = m.Steps(-int(numSteps))
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// GetVersion returns the current migration version and dirty flag.
func GetVersion(db *sql.DB) (uint, bool, error) {
	m, err := GetMigrate(db)
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}
