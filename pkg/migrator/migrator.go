package migrator

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/logger"
)

// RunMigrations applies all pending goose migrations from files to db,
// choosing the goose dialect from the database driver.
func RunMigrations(ctx context.Context, db *database.Database, files fs.FS, log logger.Logger) error {
	dialect, err := dialectFor(db.Driver())
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db.DB(), files)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}

	if log != nil {
		for _, r := range results {
			log.Info("migration applied",
				"version", r.Source.Version,
				"path", r.Source.Path,
				"duration_ms", r.Duration.Milliseconds(),
			)
		}
	}
	return nil
}

func dialectFor(driver string) (goose.Dialect, error) {
	switch driver {
	case database.DriverPostgres:
		return goose.DialectPostgres, nil
	case database.DriverSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("no goose dialect for driver %q", driver)
	}
}
