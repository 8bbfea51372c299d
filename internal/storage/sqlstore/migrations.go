package sqlstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// newMigrate builds a migrator for the store's dialect. The migrator
// borrows the store's pool and must not be closed; call release instead.
func (s *Store) newMigrate() (m *migrate.Migrate, release func(), err error) {
	var driver database.Driver
	release = func() {}

	switch s.DriverName() {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	case DriverPostgres:
		// WithInstance would pin a pooled connection for good.
		conn, cerr := s.db.Conn(context.Background())
		if cerr != nil {
			return nil, nil, wrap("acquire migration connection", cerr)
		}
		release = func() { _ = conn.Close() }
		driver, err = postgres.WithConnection(context.Background(), conn, &postgres.Config{})
	default:
		return nil, nil, fmt.Errorf("no migrations for driver %q", s.DriverName())
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+s.DriverName())
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err = migrate.NewWithInstance("iofs", src, s.DriverName(), driver)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, release, nil
}

// Migrate applies all pending up migrations.
func (s *Store) Migrate() error {
	m, release, err := s.newMigrate()
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	slog.Debug("Database migrations completed", "version", version, "dirty", dirty)
	return nil
}

// MigrateDown reverts the last n applied migrations.
func (s *Store) MigrateDown(n int) error {
	if n <= 0 {
		return fmt.Errorf("steps must be positive, got %d", n)
	}
	m, release, err := s.newMigrate()
	if err != nil {
		return err
	}
	defer release()
	if err := m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the currently applied schema version.
// A database with no migrations applied reports version 0.
func (s *Store) MigrationVersion() (version uint, dirty bool, err error) {
	m, release, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	defer release()
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}
