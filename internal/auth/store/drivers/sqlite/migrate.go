package sqlite

import (
	"errors"

	"github.com/aussiebroadwan/realmauth/internal/auth/store/drivers/sqlite/migrations"
	"github.com/samber/oops"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations applies any pending migrations from the embedded schema.
// The account replica tables are created too; they stay empty when accounts
// live in MySQL.
func (s *Store) ApplyMigrations() error {
	errb := oops.Code("MIGRATION_UP_FAILED").With("dsn", s.dsn)

	// 1. Create the SQLite migration driver
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return errb.Wrapf(err, "sqlite migration driver")
	}

	// 2. Create the iofs (embedded filesystem) source driver
	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return errb.Wrapf(err, "migration source")
	}

	// 3. Create the migrate instance to run migrations
	instance, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return errb.Wrapf(err, "migrate instance")
	}

	// 4. Apply all up migrations
	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errb.Wrapf(err, "apply migrations")
	}

	return nil
}
