package db

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	schema "github.com/doodlesbykumbi/admin-transfer/db"
)

// MigrationsTable is the golang-migrate bookkeeping table.
const MigrationsTable = "transfer_schema_migrations"

// MigrationsURL adds the migrations table parameter to dbURL.
func MigrationsURL(dbURL string) string {
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	return dbURL + sep + "x-migrations-table=" + MigrationsTable
}

func migrationsFS() (fs.FS, error) {
	sub, err := fs.Sub(schema.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}
	return sub, nil
}

// NewMigrate returns a migrator over the embedded migrations.
func NewMigrate(dbURL string) (*migrate.Migrate, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	sub, err := migrationsFS()
	if err != nil {
		return nil, err
	}
	d, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, MigrationsURL(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations and returns the resulting
// version. changed is false when the schema was already current.
func MigrateUp(dbURL string) (version uint, changed bool, err error) {
	m, err := NewMigrate(dbURL)
	if err != nil {
		return 0, false, err
	}
	defer func() { _, _ = m.Close() }()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		version, _, err = m.Version()
		return version, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration failed: %w", err)
	}

	version, _, err = m.Version()
	return version, true, err
}

// MigrateDown rolls back steps migrations.
func MigrateDown(dbURL string, steps int) (uint, error) {
	if steps < 1 {
		return 0, fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	m, err := NewMigrate(dbURL)
	if err != nil {
		return 0, err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Steps(-steps); err != nil {
		return 0, fmt.Errorf("rollback failed: %w", err)
	}

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	return version, err
}

// Status returns the applied version. applied is false on a fresh database.
func Status(dbURL string) (version uint, dirty, applied bool, err error) {
	m, err := NewMigrate(dbURL)
	if err != nil {
		return 0, false, false, err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}

// MigrationFiles lists the embedded up migrations in order.
func MigrationFiles() ([]string, error) {
	sub, err := migrationsFS()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
