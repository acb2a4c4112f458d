package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/database/sqlserver"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mbolis/survey-templates/config"
	"github.com/mbolis/survey-templates/log"
)

//go:embed migrations
var dbMigrations embed.FS

// Migrate applies the embedded migrations of driver to db.
func Migrate(db *sql.DB, driver string) error {
	src, err := iofs.New(dbMigrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	var dst migratedb.Driver
	switch driver {
	case config.DriverSQLite:
		dst, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case config.DriverSQLServer:
		dst, err = sqlserver.WithInstance(db, &sqlserver.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, driver, dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
		log.Debug("database.migrate: no change")
	case err != nil:
		return err
	default:
		version, _, _ := migrator.Version()
		log.Infof("database.migrate: schema at version %d", version)
	}
	return nil
}
