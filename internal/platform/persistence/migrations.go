package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const fileSourcePrefix = "file://"

var ErrDirtySchema = errors.New("ledger schema is dirty after a failed migration")

// migrationSourceURL accepts either a bare directory or a file:// URL
func migrationSourceURL(migrationsPath string) string {
	if strings.HasPrefix(migrationsPath, fileSourcePrefix) {
		return migrationsPath
	}
	return fileSourcePrefix + migrationsPath
}

// RunMigrations brings the ledger schema up to the latest version. A schema
// left dirty by an interrupted run is refused so entries are never written
// against a half-applied migration.
func RunMigrations(logger *slog.Logger, databaseURL string, migrationsPath string) error {
	if migrationsPath == "" {
		return errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(migrationSourceURL(migrationsPath), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil || dbErr != nil {
			logger.Warn("Closing migrator failed", "source_error", sourceErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply ledger migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read ledger schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w: version %d", ErrDirtySchema, version)
	}

	logger.Info("Ledger schema up to date", "version", version)
	return nil
}
