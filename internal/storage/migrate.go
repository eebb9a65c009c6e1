package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaVersion is the newest migration under migrations/; the store
// refuses to open a documents table older than this.
const schemaVersion uint = 1

// RunMigrations brings the documents table at dbPath up to schemaVersion.
// A schema left dirty by an interrupted migration is reported rather than
// repaired, since the goals and activityData documents live in it.
func RunMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	var dirty migrate.ErrDirty
	switch {
	case errors.As(err, &dirty):
		return fmt.Errorf("documents schema is dirty at version %d: repair it with `migrate force` before starting", dirty.Version)
	case err != nil && !errors.Is(err, migrate.ErrNoChange):
		return fmt.Errorf("migrate documents schema: %w", err)
	}

	version, isDirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read documents schema version: %w", err)
	}
	if isDirty || version < schemaVersion {
		return fmt.Errorf("documents schema at version %d (dirty=%v), want %d", version, isDirty, schemaVersion)
	}
	slog.Debug("Documents schema ready", "path", dbPath, "version", version)
	return nil
}

// newMigrator reads the embedded migrations and applies them through db.
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("migrator: %w", err)
	}
	return m, nil
}
