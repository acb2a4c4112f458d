package database

import (
	"fmt"

	"github.com/mbolis/survey-templates/config"
)

// Dialect holds the few statements that differ between the supported drivers.
// Everything else is written once, with @named parameters and [bracketed]
// identifiers, which both drivers accept.
type Dialect struct {
	Name string

	// ListViews returns (schema, name) pairs ordered by name.
	ListViews string

	returning func(table, columns, values string) string
}

var dialects = map[string]Dialect{
	config.DriverSQLite: {
		Name: config.DriverSQLite,
		ListViews: `
		SELECT 'main', name
		FROM sqlite_master
		WHERE type = 'view'
		ORDER BY name`,
		returning: func(table, columns, values string) string {
			return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING ID", table, columns, values)
		},
	},
	config.DriverSQLServer: {
		Name: config.DriverSQLServer,
		ListViews: `
		SELECT TABLE_SCHEMA, TABLE_NAME
		FROM INFORMATION_SCHEMA.VIEWS
		WHERE TABLE_SCHEMA = 'dbo'
		ORDER BY TABLE_NAME`,
		returning: func(table, columns, values string) string {
			return fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.ID VALUES (%s)", table, columns, values)
		},
	},
}

func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// InsertReturningID builds an INSERT statement whose single result row holds
// the generated ID.
func (d Dialect) InsertReturningID(table, columns, values string) string {
	return d.returning(table, columns, values)
}
