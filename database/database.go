package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/mbolis/survey-templates/config"
)

// Open opens and pings a handle for cfg, applying the driver specific DSN
// options and the pool tuning options.
func Open(ctx context.Context, cfg config.DatabaseConfig) (db *sql.DB, err error) {
	dsn := cfg.URL
	if cfg.Driver == config.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err = sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}

	// db tuning options
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// sqliteDSN enables foreign keys on every connection of the pool, not only on
// the one a PRAGMA would run on.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk") {
		dsn += sep + "_foreign_keys=on"
		sep = "&"
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		dsn += sep + "_busy_timeout=5000"
	}
	return dsn
}
