// Package item embeds the goose migrations for the item bounded context,
// one directory per supported database dialect.
package item

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

// FS returns the migration files for driver ("postgres" or "sqlite") rooted
// at the dialect directory.
func FS(driver string) (fs.FS, error) {
	switch driver {
	case "postgres", "sqlite":
		return fs.Sub(migrationsFS, driver)
	default:
		return nil, fmt.Errorf("migrations: no item migrations for driver %q", driver)
	}
}
